package notifier

import (
	"fmt"
	"strings"

	"bookbliss/internal/types"
)

// Message is a rendered notification: a subject line and a plain-text body.
type Message struct {
	Subject string
	Body    string
}

// TemplateEngine renders order-status notifications. It is a pure function of
// its inputs plus the injected clock: no network or storage access, and it
// never fails. Unrecognized statuses render a generic fallback so teardown
// paths that race with status changes still produce a sensible message.
//
// updateCount semantics: 0 means the initial synchronous send issued by Start
// (or the single terminal message); values >= 1 are periodic timer updates.
// The progress phrases vary with updateCount so repeated messages don't read
// identically; the wording is cosmetic, but every subject and body carries the
// short order reference and a status keyword.
type TemplateEngine struct {
	clock           types.Clock
	trackingBaseURL string
}

// TemplateEngineConfig holds the parameters for constructing a TemplateEngine.
type TemplateEngineConfig struct {
	// TrackingBaseURL is the public storefront URL used to build per-order
	// tracking links (no trailing slash).
	TrackingBaseURL string
	// Clock stamps the human-readable time lines. Defaults to RealClock.
	Clock types.Clock
}

// NewTemplateEngine creates a TemplateEngine.
func NewTemplateEngine(cfg TemplateEngineConfig) *TemplateEngine {
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &TemplateEngine{
		clock:           clock,
		trackingBaseURL: strings.TrimSuffix(cfg.TrackingBaseURL, "/"),
	}
}

// ShortRef returns the customer-facing order reference: the first eight
// characters of the order ID, uppercased.
func ShortRef(orderID string) string {
	ref := orderID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return strings.ToUpper(ref)
}

// Render produces the subject and body for the given order, status, and
// update sequence number.
func (e *TemplateEngine) Render(orderID string, status types.OrderStatus, updateCount int) Message {
	ref := ShortRef(orderID)
	now := e.clock.Now().Format("Mon, Jan 2 2006 at 3:04 PM MST")
	track := e.trackingLine(orderID)

	switch status {
	case types.StatusConfirmed:
		return e.renderConfirmed(ref, now, track, updateCount)
	case types.StatusProcessing:
		return e.renderProcessing(ref, now, track, updateCount)
	case types.StatusShipped:
		return e.renderShipped(ref, now, track, updateCount)
	case types.StatusOutForDelivery:
		return e.renderOutForDelivery(ref, now, track, updateCount)
	case types.StatusDelivered:
		return Message{
			Subject: fmt.Sprintf("Order %s Delivered - Enjoy Your Books!", ref),
			Body: fmt.Sprintf(`Hello,

Your order #%s has been delivered.

ORDER STATUS: DELIVERED
Delivered at: %s

We hope every book finds a good home on your shelf. If anything arrived
damaged or missing, reply to this message and we'll make it right.

Thank you for choosing Bookish Bliss!
The Bookish Bliss Team
%s`, ref, now, track),
		}
	case types.StatusCancelled:
		return Message{
			Subject: fmt.Sprintf("Order %s Cancelled", ref),
			Body: fmt.Sprintf(`Hello,

Your order #%s has been cancelled.

ORDER STATUS: CANCELLED
Cancelled at: %s

If a payment was captured it will be refunded to the original method within
3-5 business days. We'd love to see you back soon.

The Bookish Bliss Team
%s`, ref, now, track),
		}
	default:
		// Fallback for unrecognized statuses. Teardown can race with a status
		// change, so this path must never fail.
		return Message{
			Subject: fmt.Sprintf("Order Update - #%s", ref),
			Body: fmt.Sprintf(`Hello,

This is an update for your order #%s.

Status: %s
Time: %s

Thank you for choosing Bookish Bliss!
%s`, ref, string(status), now, track),
		}
	}
}

func (e *TemplateEngine) renderConfirmed(ref, now, track string, updateCount int) Message {
	if updateCount == 0 {
		return Message{
			Subject: fmt.Sprintf("Order %s Confirmed - Your Books Are Being Prepared", ref),
			Body: fmt.Sprintf(`Hello,

Great news! Your order #%s has been confirmed by our team.

ORDER STATUS: CONFIRMED
Confirmed at: %s

We are now preparing your selection for shipment. You will receive another
notification once your tracking number is active.

WHAT'S NEXT:
- Quality check in progress
- Packaging preparation
- Shipping label generation

Thank you for choosing Bookish Bliss!
The Bookish Bliss Team
%s`, ref, now, track),
		}
	}

	var progress string
	switch {
	case updateCount == 1:
		progress = "Books selected from inventory"
	case updateCount == 2:
		progress = "Quality inspection completed"
	case updateCount == 3:
		progress = "Packaging materials prepared"
	default:
		progress = "Final preparations underway"
	}

	return Message{
		Subject: fmt.Sprintf("Order %s Update #%d - Still Preparing Your Books", ref, updateCount),
		Body: fmt.Sprintf(`Hello,

This is an automated update for your order #%s.

CURRENT STATUS: CONFIRMED - IN PREPARATION
Update %d sent at: %s

PROGRESS UPDATE:
- %s

Expected next step: shipping within the next few hours.

Thank you for your patience!
The Bookish Bliss Team
%s`, ref, updateCount, now, progress, track),
	}
}

func (e *TemplateEngine) renderProcessing(ref, now, track string, updateCount int) Message {
	var stage string
	switch {
	case updateCount <= 2:
		stage = "Inventory verification"
	case updateCount <= 4:
		stage = "Quality assurance check"
	default:
		stage = "Final packaging stage"
	}

	return Message{
		Subject: fmt.Sprintf("Order %s Processing Update #%d - Almost Ready", ref, updateCount),
		Body: fmt.Sprintf(`Hello,

Processing update for order #%s:

CURRENT STATUS: PROCESSING
Update %d at: %s

PROCESSING STAGE:
- %s

We're working to get your order shipped as quickly as possible.

Best regards,
The Bookish Bliss Team
%s`, ref, updateCount, now, stage, track),
	}
}

func (e *TemplateEngine) renderShipped(ref, now, track string, updateCount int) Message {
	subject := fmt.Sprintf("Order %s Has Shipped!", ref)
	lead := "Great news! Your order has been shipped."
	if updateCount > 0 {
		subject = fmt.Sprintf("Order %s Shipping Update #%d - On The Way", ref, updateCount)
		lead = fmt.Sprintf("Shipping update for order #%s:", ref)
	}

	var progress string
	switch {
	case updateCount == 0:
		progress = "Your books are now on their way to you."
	case updateCount <= 3:
		progress = "Your package is in transit and making good progress."
	default:
		progress = "Your package should arrive soon."
	}

	return Message{
		Subject: subject,
		Body: fmt.Sprintf(`Hello,

%s

CURRENT STATUS: SHIPPED
Update sent at: %s

SHIPPING DETAILS:
Carrier: Bliss Express
Estimated delivery: 3-5 business days

%s

You can track your shipment under 'My Orders' on our website.

Thank you for your patronage!
The Bookish Bliss Logistics Team
%s`, lead, now, progress, track),
	}
}

func (e *TemplateEngine) renderOutForDelivery(ref, now, track string, updateCount int) Message {
	var stage string
	switch {
	case updateCount == 0:
		stage = "Package loaded on delivery vehicle"
	case updateCount <= 3:
		stage = "En route to your address"
	default:
		stage = "Approaching your delivery location"
	}

	return Message{
		Subject: fmt.Sprintf("Order %s Out For Delivery! Update #%d", ref, updateCount),
		Body: fmt.Sprintf(`Hello,

Your order #%s is out for delivery!

CURRENT STATUS: OUT FOR DELIVERY
Update %d at: %s

DELIVERY INFORMATION:
- %s

Expected delivery: today. Please ensure someone is available to receive the
package.

The Bookish Bliss Delivery Team
%s`, ref, updateCount, now, stage, track),
	}
}

// trackingLine renders the footer tracking link, or an empty string when no
// base URL is configured.
func (e *TemplateEngine) trackingLine(orderID string) string {
	if e.trackingBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("\n---\nTrack your order: %s/orders/%s", e.trackingBaseURL, orderID)
}
