package domain

// NotificationPayload is one rendered message for one channel
type NotificationPayload struct {
	ChannelID   string
	Platform    Platform
	Text        string
	Mentionable bool
	Pinnable    bool
	EventKind   EventKind
	MatchID     int64
	SequenceID  int64
}

// DeliveryOutcome is the result class of one send
type DeliveryOutcome string

const (
	Delivered          DeliveryOutcome = "delivered"
	ChannelUnreachable DeliveryOutcome = "channel_unreachable"
	PlatformRejected   DeliveryOutcome = "platform_rejected"
)

// DeliveryResult is what a platform adapter reports for one send
type DeliveryResult struct {
	Outcome    DeliveryOutcome
	MessageRef string // platform message id, used for pinning
	Err        error
}

// DeliveryReport is the recorded outcome for one payload
type DeliveryReport struct {
	Payload    NotificationPayload
	Outcome    DeliveryOutcome
	MessageRef string
	Pinned     bool
	Err        error
}

// OK checks if the payload was delivered
func (r *DeliveryReport) OK() bool {
	return r.Outcome == Delivered
}
