package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/models"
)

// Notifier sends the post-redemption welcome email through sendgrid. It is
// entirely best-effort: a missing API key disables it and send failures are
// logged, never surfaced to the saga.
type Notifier struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewNotifier reads the sendgrid settings from the environment
func NewNotifier() *Notifier {
	return &Notifier{
		apiKey:    os.Getenv("SENDGRID_API_KEY"),
		fromEmail: os.Getenv("MAIL_FROM_EMAIL"),
		fromName:  os.Getenv("MAIL_FROM_NAME"),
	}
}

// SendWelcome mails the new identity a summary of the servers they now have
// access to
func (n *Notifier) SendWelcome(identity models.Identity, created []provisioned) {
	if n.apiKey == "" || identity.Email == "" {
		return
	}

	serverNames := make([]string, 0, len(created))
	for _, p := range created {
		serverNames = append(serverNames, p.server.Name)
	}

	fromName := n.fromName
	if fromName == "" {
		fromName = "Zondarr"
	}
	from := mail.NewEmail(fromName, n.fromEmail)
	to := mail.NewEmail(identity.DisplayName, identity.Email)
	subject := "Your media server access is ready"
	plainText := fmt.Sprintf(
		"Hi %s,\n\nYour account %q has been created on: %s.\n\nEnjoy!",
		identity.DisplayName, identity.DisplayName, strings.Join(serverNames, ", "),
	)
	htmlContent := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account <strong>%s</strong> has been created on: %s.</p><p>Enjoy!</p>",
		identity.DisplayName, identity.DisplayName, strings.Join(serverNames, ", "),
	)

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send welcome email", "error", err, "identityId", identity.ID.Hex())
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
