package domain

import "time"

// LeaseAssignment maps a normalized number to the subscriber currently
// holding it. The relay only reads assignments; creating and revoking
// leases belongs to the bot layer.
type LeaseAssignment struct {
	Number       string
	SubscriberID int64
	LeasedAt     time.Time
}

// SubscriberStats is the per-subscriber delivery tally the bot layer
// shows in /mystats.
type SubscriberStats struct {
	SubscriberID int64
	TotalOTPs    int64
	LastOTPAt    time.Time
	JoinedAt     time.Time
}
