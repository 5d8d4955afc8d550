// Package config loads service configuration from the environment. The
// groups are separate so each CLI command only demands the settings it uses.
package config

import "github.com/kelseyhightower/envconfig"

type Server struct {
	HTTPPort            int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	AdminAPIKey         string `envconfig:"ADMIN_API_KEY" required:"true"`
}

type Mail struct {
	SMTPHost  string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser  string `envconfig:"SMTP_USER"`
	SMTPPass  string `envconfig:"SMTP_PASS"`
	FromEmail string `envconfig:"FROM_EMAIL" default:"noreply@paradoxlabs.tech"`
}

type Database struct {
	DSN string `envconfig:"DATABASE_DSN" required:"true"`
}

func LoadServer() (Server, error) {
	var c Server
	err := envconfig.Process("", &c)
	return c, err
}

func LoadMail() (Mail, error) {
	var c Mail
	err := envconfig.Process("", &c)
	return c, err
}

func LoadDatabase() (Database, error) {
	var c Database
	err := envconfig.Process("", &c)
	return c, err
}
