package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

// DeliveryError reports a failed send to one recipient.
type DeliveryError struct {
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// TelegramNotifier sends messages and receives commands via the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tele.Bot
	menu   *tele.ReplyMarkup
	btnNow tele.Btn
	log    zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string, pollTimeout time.Duration, log zerolog.Logger) (*TelegramNotifier, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	t := &TelegramNotifier{log: log.With().Str("component", "telegram").Logger()}
	b, err := tele.NewBot(tele.Settings{
		Token:  botToken,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		Client: &http.Client{
			Timeout:   pollTimeout + 10*time.Second,
			Transport: transport,
		},
		OnError: func(err error, c tele.Context) {
			ev := t.log.Error().Err(err)
			if c != nil && c.Chat() != nil {
				ev = ev.Int64("chat_id", c.Chat().ID)
			}
			ev.Msg("telegram handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	t.bot = b
	t.menu = &tele.ReplyMarkup{ResizeKeyboard: true}
	t.btnNow = t.menu.Text(ButtonGetNow)
	t.menu.Reply(t.menu.Row(t.btnNow))
	return t, nil
}

// SendText delivers text to one chat. The call gives up when ctx is done even
// if the underlying request is still in flight.
func (t *TelegramNotifier) SendText(ctx context.Context, recipient int64, text string) error {
	return t.send(ctx, recipient, text, tele.ModeHTML)
}

func (t *TelegramNotifier) send(ctx context.Context, recipient int64, text string, opts ...interface{}) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(&tele.Chat{ID: recipient}, text, opts...)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Recipient: recipient, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &DeliveryError{Recipient: recipient, Err: ctx.Err()}
	}
}
