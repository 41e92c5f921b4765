package mailer

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

type QuoteEmailData struct {
	CustomerName string
	QuoteNumber  string
	Brand        string
	Total        float64
	Currency     string
	ValidUntil   string
}

const quoteTemplate = `Hello {{.CustomerName}},

please find below our quotation {{.QuoteNumber}}.

Total: {{printf "%.2f" .Total}} {{.Currency}}
{{if .ValidUntil}}Valid until: {{.ValidUntil}}
{{end}}
Kind regards,
{{.Brand}}
`

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// RenderQuote renders the quotation template into a subject and plain-text
// body, shared by the SMTP and Gmail send paths.
func RenderQuote(data QuoteEmailData) (subject, body string, err error) {
	t, err := template.New("quote").Parse(quoteTemplate)
	if err != nil {
		return "", "", fmt.Errorf("quote template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("quote template render: %w", err)
	}
	return fmt.Sprintf("Quotation %s from %s", data.QuoteNumber, data.Brand), buf.String(), nil
}

// SendQuote renders and sends one quotation email over SMTP.
func (s *EmailSender) SendQuote(to string, data QuoteEmailData) error {
	subject, body, err := RenderQuote(data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
