package email

import (
	"context"
	"fmt"

	"trefa_backend/internal/events"
	"trefa_backend/platform/logger"
)

// Notifier sends the offer email when a valuation resolves. It subscribes
// to the event bus so the valuation pipeline never blocks on SMTP.
type Notifier struct {
	sender Sender
	log    *logger.Logger
}

// NewNotifier creates the notifier.
func NewNotifier(sender Sender, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// Register subscribes the notifier to the event bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.ValuationResolved{}.EventName(), n)
}

// Handle implements events.Handler.
func (n *Notifier) Handle(ctx context.Context, event events.Event) error {
	resolved, ok := event.(events.ValuationResolved)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	// Sellers are not required to leave an email address.
	if resolved.ContactEmail == "" {
		return nil
	}

	if err := n.sender.SendOfferEmail(ctx, resolved.ContactEmail, resolved.ContactName, resolved.VehicleLabel, resolved.SuggestedOffer); err != nil {
		n.log.Error("failed to send offer email",
			"valuation_id", resolved.ValuationID.String(), "error", err)
		return err
	}
	return nil
}
