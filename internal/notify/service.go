package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/handyhub/platform/internal/bookings"
	"github.com/handyhub/platform/pkg/logging"
)

type enqueuer interface {
	Publish(ctx context.Context, n Notification) error
}

// Service composes domain notifications and enqueues them for the delivery
// worker. Everything here is best-effort: callers log the returned error and
// move on.
type Service struct {
	publisher enqueuer
	contacts  ContactResolver
	logger    *logging.Logger
}

func NewService(publisher *Publisher, contacts ContactResolver, logger *logging.Logger) *Service {
	if publisher == nil {
		panic("notify: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		publisher: publisher,
		contacts:  contacts,
		logger:    logger.Component("notify"),
	}
}

func newServiceWithEnqueuer(publisher enqueuer, contacts ContactResolver, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{publisher: publisher, contacts: contacts, logger: logger}
}

// CheckOutCompleted fans out the settlement result to the customer and the
// professional on both channels. Delivery problems never block settlement.
func (s *Service) CheckOutCompleted(ctx context.Context, b *bookings.Booking) error {
	amount := formatAmount(b.AmountCapturedCents, b.Currency)
	customerID := b.CustomerID.String()
	professionalID := b.ProfessionalID.String()

	var errs []error

	errs = append(errs, s.publisher.Publish(ctx, Notification{
		Channel: ChannelPush,
		UserID:  customerID,
		Subject: "Service completed",
		Body:    fmt.Sprintf("Your %s is done. %s was charged to your payment method.", b.ServiceName, amount),
	}))
	errs = append(errs, s.publisher.Publish(ctx, Notification{
		Channel: ChannelPush,
		UserID:  professionalID,
		Subject: "Job checked out",
		Body:    fmt.Sprintf("Check-out recorded for %s. %s captured.", b.ServiceName, amount),
	}))

	errs = append(errs, s.publishEmail(ctx, customerID,
		"Your service is complete",
		fmt.Sprintf("Your %s was completed and %s was charged to your payment method. Thanks for using HandyHub!", b.ServiceName, amount)))
	errs = append(errs, s.publishEmail(ctx, professionalID,
		"Job completed and payment captured",
		fmt.Sprintf("You checked out of %s. %s was captured and will be included in your next payout.", b.ServiceName, amount)))

	return errors.Join(errs...)
}

// BackgroundCheckResult notifies a professional that their check finished.
func (s *Service) BackgroundCheckResult(ctx context.Context, professionalID, email, name, status string) error {
	body := "Your background check has completed. Log in to see your onboarding status."
	if strings.EqualFold(status, "clear") {
		body = "Good news: your background check cleared. Log in to see your onboarding status."
	}

	var errs []error
	if email != "" {
		errs = append(errs, s.publisher.Publish(ctx, Notification{
			Channel:       ChannelEmail,
			Email:         email,
			RecipientName: name,
			Subject:       "Your background check is complete",
			Body:          body,
		}))
	}
	errs = append(errs, s.publisher.Publish(ctx, Notification{
		Channel: ChannelPush,
		UserID:  professionalID,
		Subject: "Background check complete",
		Body:    body,
	}))
	return errors.Join(errs...)
}

// publishEmail resolves the user's address first; a user without a contact
// row simply gets no email.
func (s *Service) publishEmail(ctx context.Context, userID, subject, body string) error {
	if s.contacts == nil {
		return nil
	}
	contact, err := s.contacts.Contact(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			s.logger.Warn("no contact for user, skipping email", "user_id", userID)
			return nil
		}
		return err
	}
	return s.publisher.Publish(ctx, Notification{
		Channel:       ChannelEmail,
		UserID:        userID,
		Email:         contact.Email,
		RecipientName: contact.Name,
		Subject:       subject,
		Body:          body,
	})
}

func formatAmount(cents int64, currency string) string {
	major := float64(cents) / 100
	switch strings.ToLower(currency) {
	case "", "usd":
		return fmt.Sprintf("$%.2f", major)
	default:
		return fmt.Sprintf("%.2f %s", major, strings.ToUpper(currency))
	}
}
