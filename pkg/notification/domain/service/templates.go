package service

import (
	"html/template"
	"strings"

	"github.com/forresttindall/paradoxlabs/pkg/notification/domain/model"
)

type statusStyle struct {
	subjectFormat string
	title         string
	color         string
	body          string
}

var statusStyles = map[string]statusStyle{
	"processing": {
		subjectFormat: "Your order #%s is being processed",
		title:         "Your Order Is Being Processed",
		color:         "#007bff",
		body:          "We have started preparing your order for shipment. You will receive another email with tracking information as soon as it ships.",
	},
	"delivered": {
		subjectFormat: "Your order #%s has been delivered!",
		title:         "Your Order Has Been Delivered",
		color:         "#28a745",
		body:          "Your order has been delivered. We hope you love it! If anything is wrong with your order, please contact our customer support team.",
	},
	"cancelled": {
		subjectFormat: "Your order #%s has been cancelled",
		title:         "Your Order Has Been Cancelled",
		color:         "#dc3545",
		body:          "Your order has been cancelled. If you were charged, the amount will be refunded to your original payment method.",
	},
}

var shippingTemplate = template.Must(template.New("shipping").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Your Order Has Shipped!</h2>

  <p>Hi {{.CustomerName}},</p>

  <p>Great news! Your order #{{.OrderNumber}} has been shipped and is on its way to you.</p>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #333;">Tracking Information</h3>
    <p><strong>Tracking Number:</strong> {{.TrackingNumber}}</p>
    <p><strong>Carrier:</strong> {{.Carrier}}</p>
    <p><strong>Estimated Delivery:</strong> {{.EstimatedDelivery}}</p>
    {{if .TrackingURL}}<p><a href="{{.TrackingURL}}" style="color: #007bff;">Track Your Package</a></p>{{end}}
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #333;">Shipping Address</h3>
    <p>
      {{.Address.Name}}<br>
      {{.Address.Line1}}<br>
      {{.Address.City}}, {{.Address.State}} {{.Address.PostalCode}}<br>
      {{.Address.Country}}
    </p>
  </div>

  <p>If you have any questions about your order, please don't hesitate to contact our customer support team.</p>

  <p>Thank you for your business!</p>

  <p style="color: #666; font-size: 12px; margin-top: 30px;">
    This is an automated message. Please do not reply to this email.
  </p>
</div>
`))

var statusTemplate = template.Must(template.New("status").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: {{.Color}};">{{.Title}}</h2>

  <p>Hi {{.CustomerName}},</p>

  <p>This is an update about your order #{{.OrderNumber}}.</p>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p>{{.Body}}</p>
    {{if .AdditionalInfo}}<p><strong>Note:</strong> {{.AdditionalInfo}}</p>{{end}}
  </div>

  {{if .Items}}
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #333;">Order Summary</h3>
    {{range .Items}}<p>{{.Quantity}} x {{.Name}}</p>{{end}}
  </div>
  {{end}}

  <p>If you have any questions about your order, please don't hesitate to contact our customer support team.</p>

  <p>Thank you for your business!</p>

  <p style="color: #666; font-size: 12px; margin-top: 30px;">
    This is an automated message. Please do not reply to this email.
  </p>
</div>
`))

type shippingEmailData struct {
	CustomerName      string
	OrderNumber       string
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery string
	TrackingURL       string
	Address           model.Address
}

type statusEmailData struct {
	CustomerName   string
	OrderNumber    string
	Title          string
	Color          string
	Body           string
	AdditionalInfo string
	Items          []model.OrderItem
}

func renderShippingEmail(details model.OrderDetails, tracking model.TrackingDetails) (string, error) {
	estimated := tracking.EstimatedDelivery
	if estimated == "" {
		estimated = "TBD"
	}

	data := shippingEmailData{
		CustomerName:      customerNameOrDefault(details),
		OrderNumber:       details.OrderNumber,
		TrackingNumber:    tracking.Number,
		Carrier:           tracking.Carrier,
		EstimatedDelivery: estimated,
		TrackingURL:       tracking.URL,
		Address:           details.ShippingAddress,
	}

	var buf strings.Builder
	if err := shippingTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderStatusEmail(details model.OrderDetails, style statusStyle, additionalInfo string) (string, error) {
	data := statusEmailData{
		CustomerName:   customerNameOrDefault(details),
		OrderNumber:    details.OrderNumber,
		Title:          style.title,
		Color:          style.color,
		Body:           style.body,
		AdditionalInfo: additionalInfo,
		Items:          details.Items,
	}

	var buf strings.Builder
	if err := statusTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func customerNameOrDefault(details model.OrderDetails) string {
	if details.CustomerName == "" {
		return "Customer"
	}
	return details.CustomerName
}
