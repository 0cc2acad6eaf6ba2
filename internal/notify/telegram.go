// Package notify delivers reservation events to manager chats on Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"reserva/internal/booking"
	"reserva/internal/events"
	"reserva/internal/metrics"
	"reserva/internal/models"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Config controls delivery.
type Config struct {
	ChatIDs   []int64
	PerSecond float64
	Burst     int
	QueueSize int
}

// Notifier queues event messages and sends them from Run.
type Notifier struct {
	sender  Sender
	chatIDs []int64
	limiter *rate.Limiter
	queue   chan string
	logger  zerolog.Logger
}

// NewBot connects to the Telegram Bot API.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return bot, nil
}

// NewNotifier creates a notifier. Zero rate settings default to one message
// per second with a burst of five.
func NewNotifier(sender Sender, cfg Config, logger zerolog.Logger) *Notifier {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	return &Notifier{
		sender:  sender,
		chatIDs: cfg.ChatIDs,
		limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst),
		queue:   make(chan string, cfg.QueueSize),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Subscribe registers the notifier for reservation events.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	for _, t := range []string{
		events.ReservationCreated,
		events.ReservationConfirmed,
		events.ReservationCancelled,
		events.ReservationCompleted,
	} {
		bus.Subscribe(t, n.handle)
	}
}

func (n *Notifier) handle(e events.Event) error {
	var ev booking.ReservationEvent
	if err := e.Decode(&ev); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	select {
	case n.queue <- FormatEvent(e.Type, ev):
		return nil
	default:
		metrics.IncNotification("dropped")
		return fmt.Errorf("notification queue full, dropping %s", e.Type)
	}
}

// Run sends queued messages until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			n.broadcast(ctx, text)
		}
	}
}

func (n *Notifier) broadcast(ctx context.Context, text string) {
	for _, chatID := range n.chatIDs {
		if err := n.limiter.Wait(ctx); err != nil {
			return
		}
		if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			metrics.IncNotification("error")
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send notification")
			continue
		}
		metrics.IncNotification("sent")
	}
}

// SendDocument delivers a file to every manager chat.
func (n *Notifier) SendDocument(ctx context.Context, name string, data []byte, caption string) error {
	var lastErr error
	for _, chatID := range n.chatIDs {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
		doc.Caption = caption
		if _, err := n.sender.Send(doc); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Str("file", name).Msg("failed to send document")
			lastErr = err
		}
	}
	return lastErr
}

// FormatEvent renders a reservation event as a chat message.
func FormatEvent(eventType string, ev booking.ReservationEvent) string {
	var title string
	switch eventType {
	case events.ReservationCreated:
		title = "New reservation request"
	case events.ReservationConfirmed:
		title = "Reservation confirmed"
	case events.ReservationCancelled:
		title = "Reservation cancelled"
	case events.ReservationCompleted:
		title = "Reservation completed"
	default:
		title = eventType
	}

	room := ev.RoomName
	if room == "" {
		room = ev.RoomID
	}
	when := ev.StartAt
	if t, err := time.Parse(models.DateTimeLayout, ev.StartAt); err == nil {
		when = t.Format("02.01.2006 15:04")
	}

	return fmt.Sprintf("%s\nRoom: %s\nTime: %s\nClient: %s\nReservation: %s",
		title, room, when, ev.ClientID, ev.ReservationID)
}
