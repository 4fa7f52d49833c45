package app

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

// Router turns one accepted record into its destination set: the
// public broadcast target (masked number, bounded preview) whenever a
// broadcast chat is configured, plus a private target when the number
// is currently leased. The lease lookup runs through the cached
// repository, so routing stays effectively non-blocking; all payload
// rendering happens here, never in the workers.
type Router struct {
	leases          repository.LeaseRepository
	broadcastChatID string
	previewLength   int
	logger          *slog.Logger
}

// NewRouter builds a Router. An empty broadcastChatID disables the
// broadcast class entirely.
func NewRouter(leases repository.LeaseRepository, broadcastChatID string, previewLength int, logger *slog.Logger) *Router {
	return &Router{
		leases:          leases,
		broadcastChatID: broadcastChatID,
		previewLength:   previewLength,
		logger:          logger.With("component", "router"),
	}
}

// Route produces zero, one or two delivery targets for the record.
// The number must already be normalized. A failed lease lookup logs
// and degrades to broadcast-only rather than losing the event.
func (r *Router) Route(ctx context.Context, rec domain.RawRecord, number string, otp domain.ExtractedOTP) []domain.DeliveryTarget {
	var targets []domain.DeliveryTarget

	if r.broadcastChatID != "" {
		targets = append(targets, domain.DeliveryTarget{
			Class:   domain.ClassBroadcast,
			ChatID:  r.broadcastChatID,
			Payload: r.formatBroadcast(rec, number, otp),
			Number:  number,
		})
	}

	lease, err := r.leases.CurrentLeaseholder(ctx, number)
	if err != nil {
		r.logger.ErrorContext(ctx, "lease lookup failed", "number", domain.MaskNumber(number), "error", err)
		return targets
	}
	if lease == nil {
		return targets
	}

	targets = append(targets, domain.DeliveryTarget{
		Class:        domain.ClassPrivate,
		ChatID:       fmt.Sprintf("%d", lease.SubscriberID),
		Payload:      formatPrivate(rec, number, otp),
		Number:       number,
		SubscriberID: lease.SubscriberID,
	})
	return targets
}

// formatBroadcast renders the public view: masked number, country
// line, message truncated to the preview length.
func (r *Router) formatBroadcast(rec domain.RawRecord, number string, otp domain.ExtractedOTP) string {
	country, flag := countryFromNumber(number)
	sender := rec.Sender
	if sender == "" {
		sender = "Unknown"
	}

	preview := rec.Text
	if len(preview) > r.previewLength {
		preview = preview[:r.previewLength]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>New %s OTP Received</b>\n\n", flag, html.EscapeString(sender))
	fmt.Fprintf(&b, "<blockquote><b>Time:</b> %s</blockquote>\n", rec.ReceivedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "<blockquote><b>Country:</b> %s %s</blockquote>\n", html.EscapeString(country), flag)
	fmt.Fprintf(&b, "<blockquote><b>Service:</b> %s</blockquote>\n", html.EscapeString(sender))
	fmt.Fprintf(&b, "<blockquote><b>Number:</b> %s</blockquote>\n", html.EscapeString(domain.MaskNumber(number)))
	if otp.Found() {
		fmt.Fprintf(&b, "<blockquote><b>OTP:</b> <code>%s</code></blockquote>\n", html.EscapeString(otp.Code))
	}
	fmt.Fprintf(&b, "<blockquote><b>Message:</b></blockquote>\n<blockquote><code>%s</code></blockquote>", html.EscapeString(preview))
	return b.String()
}

// formatPrivate renders the leaseholder's view: full number, full
// message text.
func formatPrivate(rec domain.RawRecord, number string, otp domain.ExtractedOTP) string {
	sender := rec.Sender
	if sender == "" {
		sender = "Unknown"
	}

	var b strings.Builder
	b.WriteString("<b>New OTP Received!</b>\n\n")
	if otp.Found() {
		fmt.Fprintf(&b, "<b>OTP:</b> <code>%s</code>\n\n", html.EscapeString(otp.Code))
	}
	fmt.Fprintf(&b, "<b>Service:</b> %s\n", html.EscapeString(sender))
	fmt.Fprintf(&b, "<b>Number:</b> <code>%s</code>\n\n", html.EscapeString(number))
	fmt.Fprintf(&b, "<b>Full Message:</b>\n<blockquote>%s</blockquote>", html.EscapeString(rec.Text))
	return b.String()
}

// countryFromNumber resolves the country name and flag emoji for a
// normalized number. Unknown numbers get a globe.
func countryFromNumber(number string) (string, string) {
	parsed, err := phonenumbers.Parse("+"+number, "")
	if err != nil {
		return "Unknown", "\U0001F310"
	}
	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "" || region == "ZZ" {
		return "Unknown", "\U0001F310"
	}
	flag := make([]rune, 0, 2)
	for _, c := range region {
		flag = append(flag, rune(127397+c))
	}
	country, err := phonenumbers.GetGeocodingForNumber(parsed, "en")
	if err != nil || country == "" {
		country = region
	}
	return country, string(flag)
}
