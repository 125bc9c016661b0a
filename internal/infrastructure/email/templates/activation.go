// Package templates provides email template layout
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// ActivationEmailProps holds the variables for the company activation email.
type ActivationEmailProps struct {
	CompanyName     string
	CompanyCode     string
	ActivationURL   string
	ExpirationHours int
}

type activationTemplateData struct {
	CompanyName     string
	CompanyCode     string
	ActivationURL   string
	ExpirationHours int
}

var activationTemplate = template.Must(template.New("activation").Parse(`
<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Activate your LedgerLine company</title>
  </head>
  <body style="font-family: Helvetica, sans-serif; font-size: 16px; line-height: 1.3; background-color: #f4f5f6; margin: 0; padding: 24px;">
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="100%" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
      <tr>
        <td style="padding: 32px;">
          <h1 style="font-size: 22px; margin: 0 0 16px;">Activate {{.CompanyName}}</h1>
          <p>Your LedgerLine company <strong>{{.CompanyCode}}</strong> has been provisioned. Click below to activate it and create its database.</p>
          <p style="margin: 24px 0;">
            <a href="{{.ActivationURL}}" style="background-color: #0867ec; color: #ffffff; text-decoration: none; padding: 12px 24px; border-radius: 4px; display: inline-block;">Activate Company</a>
          </p>
          <p>This link expires in {{.ExpirationHours}} hours. If you did not request this, ignore this email.</p>
          <p style="color: #9a9ea6; font-size: 13px; margin-top: 32px;">LedgerLine ERP</p>
        </td>
      </tr>
    </table>
  </body>
</html>`))

// GetActivationEmailHTML renders the activation email body.
func GetActivationEmailHTML(props ActivationEmailProps) string {
	if props.ExpirationHours == 0 {
		props.ExpirationHours = 48
	}

	var buf bytes.Buffer
	err := activationTemplate.Execute(&buf, activationTemplateData(props))
	if err != nil {
		log.Printf("Error executing activation email template: %v", err)
		return ""
	}
	return buf.String()
}
