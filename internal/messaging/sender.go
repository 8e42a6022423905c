// Package messaging sends SMS and WhatsApp messages to clients through
// simulated channels and keeps the message and campaign history.
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Delivery statuses.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// SMSCost is the simulated price of one SMS, in F CFA.
const SMSCost = 25

// Message is an outbound message with a normalised recipient.
type Message struct {
	To       string
	Body     string
	Sender   string
	Template Template
}

// Receipt is what a channel reports for an accepted message.
type Receipt struct {
	MessageID string
	Status    string
	Cost      float64
	Provider  string
	SentAt    time.Time
}

// Sender delivers messages on one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// SimulatedSMS accepts every message without network access.
type SimulatedSMS struct {
	Provider string
	Now      func() time.Time
}

// Channel implements Sender.
func (SimulatedSMS) Channel() Channel { return ChannelSMS }

// Send implements Sender.
func (s SimulatedSMS) Send(ctx context.Context, _ Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		MessageID: "sms_" + uuid.NewString(),
		Status:    StatusSent,
		Cost:      SMSCost,
		Provider:  or(s.Provider, "orange"),
		SentAt:    clockNow(s.Now),
	}, nil
}

// SimulatedWhatsApp accepts every message without network access.
type SimulatedWhatsApp struct {
	Provider string
	Now      func() time.Time
}

// Channel implements Sender.
func (SimulatedWhatsApp) Channel() Channel { return ChannelWhatsApp }

// Send implements Sender.
func (s SimulatedWhatsApp) Send(ctx context.Context, _ Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		MessageID: "wa_" + uuid.NewString(),
		Status:    StatusDelivered,
		Provider:  or(s.Provider, "whatsapp-business"),
		SentAt:    clockNow(s.Now),
	}, nil
}

func clockNow(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
