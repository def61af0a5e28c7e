package bot

import (
	"context"
	"errors"

	"RatePulse/internal/model"
	"RatePulse/internal/notifier"
	"RatePulse/internal/registry"

	"github.com/rs/zerolog"
)

const maxAliasLen = 64

// RateReporter answers on-demand rate queries.
type RateReporter interface {
	OnDemand(ctx context.Context, recipient int64) (string, error)
}

// Handler maps user commands to registry updates and rate replies.
type Handler struct {
	Registry registry.Registry
	Rates    RateReporter

	Currencies []model.Currency
	Quote      model.Currency
	Hour       int
	Minute     int
	Timezone   string

	log zerolog.Logger
}

func NewHandler(reg registry.Registry, rates RateReporter, log zerolog.Logger) *Handler {
	return &Handler{
		Registry: reg,
		Rates:    rates,
		log:      log.With().Str("component", "bot").Logger(),
	}
}

// Handle processes a user command and returns a reply.
func (h *Handler) Handle(ctx context.Context, cmd notifier.Command) notifier.Reply {
	switch cmd.Kind {
	case notifier.CmdStart:
		return h.subscribe(ctx, cmd.ChatID)
	case notifier.CmdSetName:
		return h.setAlias(ctx, cmd.ChatID, cmd.Args)
	default:
		return h.currentRate(ctx, cmd.ChatID)
	}
}

func (h *Handler) subscribe(ctx context.Context, chatID int64) notifier.Reply {
	if err := h.Registry.UpsertAlias(ctx, chatID, ""); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("subscribe failed")
		return notifier.Reply{Text: notifier.ErrorReply}
	}
	h.log.Info().Int64("chat_id", chatID).Msg("recipient subscribed")
	return notifier.Reply{
		Text:     notifier.FormatWelcome(h.Currencies, h.Quote, h.Hour, h.Minute, h.Timezone),
		Keyboard: true,
	}
}

func (h *Handler) setAlias(ctx context.Context, chatID int64, alias string) notifier.Reply {
	if alias == "" {
		return notifier.Reply{Text: notifier.AliasUsage}
	}
	if r := []rune(alias); len(r) > maxAliasLen {
		alias = string(r[:maxAliasLen])
	}
	if err := h.Registry.UpsertAlias(ctx, chatID, alias); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("set alias failed")
		return notifier.Reply{Text: notifier.ErrorReply}
	}
	return notifier.Reply{Text: notifier.FormatAliasSet(alias)}
}

func (h *Handler) currentRate(ctx context.Context, chatID int64) notifier.Reply {
	text, err := h.Rates.OnDemand(ctx, chatID)
	if err != nil {
		var re *registry.Error
		if errors.As(err, &re) {
			h.log.Error().Err(err).Int64("chat_id", chatID).Msg("on-demand alias lookup failed")
		} else {
			h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("on-demand rate fetch failed")
		}
		return notifier.Reply{Text: notifier.Apology, Keyboard: true}
	}
	return notifier.Reply{Text: text, Keyboard: true}
}
