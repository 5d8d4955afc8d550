package model

type EmailSent struct {
	Recipient string
	Subject   string
}

func (e EmailSent) Type() string { return "EmailSent" }
