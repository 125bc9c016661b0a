// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendCompanyActivationEmail(toEmail, companyName, companyCode, activationURL string) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("COMPANY_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@ledgerline.io"
	}

	fromName := os.Getenv("COMPANY_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "LedgerLine"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendCompanyActivationEmail composes and sends the company activation email.
func (c *ResendClient) SendCompanyActivationEmail(toEmail, companyName, companyCode, activationURL string) error {
	htmlContent := templates.GetActivationEmailHTML(templates.ActivationEmailProps{
		CompanyName:     companyName,
		CompanyCode:     companyCode,
		ActivationURL:   activationURL,
		ExpirationHours: 48,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: "Activate your LedgerLine company",
		Html:    htmlContent,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send activation email via Resend: %w", err)
	}
	return nil
}
