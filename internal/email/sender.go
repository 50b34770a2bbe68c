// Package email sends transactional email for resolved valuations.
package email

import (
	"context"

	"trefa_backend/platform/config"
)

// Sender delivers transactional email.
type Sender interface {
	// SendOfferEmail sends the suggested offer to the seller.
	SendOfferEmail(ctx context.Context, toEmail, consumerName, vehicleLabel string, offer float64) error
}

// NewSender creates a sender from configuration. When email is disabled
// or incompletely configured a no-op sender is returned.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" || cfg.GetEmailFromAddress() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// NoopSender drops all email. Used when SMTP is not configured.
type NoopSender struct{}

// SendOfferEmail implements Sender.
func (NoopSender) SendOfferEmail(context.Context, string, string, string, float64) error {
	return nil
}
