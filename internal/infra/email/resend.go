package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type resendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendSender struct {
	emails resendAPI
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{emails: resend.NewClient(apiKey).Emails}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
