package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// DefaultSender is the sender name shown on SMS.
const DefaultSender = "Al Madinah"

var (
	// ErrEmptyMessage is returned when there is nothing to send.
	ErrEmptyMessage = fmt.Errorf("messaging: message is empty: %w", shared.ErrValidation)
	// ErrNoChannel is returned when a channel has no sender.
	ErrNoChannel = fmt.Errorf("messaging: channel not configured: %w", shared.ErrValidation)
)

// ClientSource resolves newsletter recipients.
type ClientSource interface {
	Snapshot() store.State
}

// Config tunes the service.
type Config struct {
	// SendInterval paces newsletter sends. Zero sends without pause.
	SendInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Service sends messages and records them.
type Service struct {
	senders  map[Channel]Sender
	history  *History
	clients  ClientSource
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewService wires senders, history and the client source.
func NewService(history *History, clients ClientSource, cfg Config, senders ...Sender) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Service{
		senders:  make(map[Channel]Sender, len(senders)),
		history:  history,
		clients:  clients,
		interval: cfg.SendInterval,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	for _, sender := range senders {
		s.senders[sender.Channel()] = sender
	}
	return s
}

// Send validates the recipient, sends body on channel and records it.
func (s *Service) Send(ctx context.Context, channel Channel, to, body, sender string) (Record, error) {
	snd, ok := s.senders[channel]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNoChannel, channel)
	}
	if body == "" {
		return Record{}, ErrEmptyMessage
	}
	phone, err := NormalizePhone(to)
	if err != nil {
		return Record{}, err
	}
	receipt, err := snd.Send(ctx, Message{To: phone, Body: body, Sender: or(sender, DefaultSender)})
	if err != nil {
		return Record{}, fmt.Errorf("messaging: send %s: %w", channel, err)
	}
	rec := Record{
		ID:        receipt.MessageID,
		Type:      channel,
		To:        phone,
		Message:   body,
		Status:    or(receipt.Status, StatusSent),
		Cost:      receipt.Cost,
		Timestamp: receipt.SentAt,
		Provider:  receipt.Provider,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	if err := s.history.AddMessage(ctx, rec); err != nil {
		s.logger.Warn("messaging: history not saved", slog.String("id", rec.ID), slog.Any("error", err))
	}
	return rec, nil
}

// NewsletterRequest describes a campaign.
type NewsletterRequest struct {
	Subject  string     `json:"subject" validate:"required"`
	Message  string     `json:"message"`
	Template Template   `json:"template,omitempty"`
	Vars     Vars       `json:"vars,omitempty"`
	Channels []Channel  `json:"channels" validate:"required,min=1,dive,oneof=sms whatsapp"`
	Clients  []store.ID `json:"clientIds,omitempty"`
}

// ClientResult is the outcome for one recipient.
type ClientResult struct {
	ClientID store.ID           `json:"clientId"`
	Name     string             `json:"name"`
	Phone    string             `json:"phone"`
	Channels map[Channel]string `json:"channels"`
	Error    string             `json:"error,omitempty"`
}

// NewsletterResult counts recipients reached on at least one channel.
type NewsletterResult struct {
	Total   int            `json:"total"`
	Sent    int            `json:"sent"`
	Failed  int            `json:"failed"`
	Details []ClientResult `json:"details"`
}

// Newsletter sends the campaign to the selected clients, or to every client
// when none is selected, and records it.
func (s *Service) Newsletter(ctx context.Context, req NewsletterRequest) (Campaign, error) {
	body := req.Message
	if req.Template != "" {
		rendered, err := Render(req.Template, req.Vars)
		if err != nil {
			return Campaign{}, err
		}
		body = rendered
	}
	if body == "" {
		return Campaign{}, ErrEmptyMessage
	}
	for _, ch := range req.Channels {
		if _, ok := s.senders[ch]; !ok {
			return Campaign{}, fmt.Errorf("%w: %s", ErrNoChannel, ch)
		}
	}

	recipients := s.recipients(req.Clients)
	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.interval), 1)
	}

	result := NewsletterResult{Total: len(recipients), Details: make([]ClientResult, 0, len(recipients))}
	for _, c := range recipients {
		if err := limiter.Wait(ctx); err != nil {
			return Campaign{}, err
		}
		cr := ClientResult{ClientID: c.ID, Name: c.Name, Phone: c.Phone, Channels: map[Channel]string{}}
		reached := false
		for _, ch := range req.Channels {
			rec, err := s.Send(ctx, ch, c.Phone, body, DefaultSender)
			if err != nil {
				cr.Channels[ch] = StatusFailed
				cr.Error = err.Error()
				continue
			}
			cr.Channels[ch] = rec.Status
			reached = true
		}
		if reached {
			result.Sent++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, cr)
	}

	now := s.now().UTC()
	campaign := Campaign{
		ID:        fmt.Sprintf("campaign_%d", now.UnixMilli()),
		Subject:   req.Subject,
		Message:   body,
		Channels:  req.Channels,
		Results:   result,
		Timestamp: now,
	}
	if err := s.history.AddCampaign(ctx, campaign); err != nil {
		s.logger.Warn("messaging: campaign not saved", slog.String("id", campaign.ID), slog.Any("error", err))
	}
	s.logger.Info("newsletter sent",
		slog.String("subject", req.Subject),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed))
	return campaign, nil
}

func (s *Service) recipients(ids []store.ID) []store.Client {
	state := s.clients.Snapshot()
	if len(ids) == 0 {
		return state.Clients
	}
	out := make([]store.Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := state.Client(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Stats summarises the message history.
type Stats struct {
	TotalMessages  int     `json:"totalMessages"`
	TotalCampaigns int     `json:"totalCampaigns"`
	SMSCount       int     `json:"smsCount"`
	WhatsAppCount  int     `json:"whatsappCount"`
	TotalCost      float64 `json:"totalCost"`
	SuccessRate    float64 `json:"successRate"`
}

// Stats computes counters over the stored history.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	messages, err := s.history.Messages(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	campaigns, err := s.history.Campaigns(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalMessages: len(messages), TotalCampaigns: len(campaigns)}
	ok := 0
	for _, m := range messages {
		switch m.Type {
		case ChannelSMS:
			st.SMSCount++
		case ChannelWhatsApp:
			st.WhatsAppCount++
		}
		st.TotalCost += m.Cost
		if m.Status == StatusSent || m.Status == StatusDelivered {
			ok++
		}
	}
	if len(messages) > 0 {
		st.SuccessRate = float64(ok) / float64(len(messages)) * 100
	}
	return st, nil
}

// History returns the latest messages.
func (s *Service) History(ctx context.Context, limit int) ([]Record, error) {
	return s.history.Messages(ctx, limit)
}

// Campaigns returns the latest campaigns.
func (s *Service) Campaigns(ctx context.Context, limit int) ([]Campaign, error) {
	return s.history.Campaigns(ctx, limit)
}
