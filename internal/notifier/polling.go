package notifier

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// CommandKind identifies what a user asked for.
type CommandKind int

const (
	CmdStart CommandKind = iota
	CmdSetName
	CmdGetNow
	CmdText
)

func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdSetName:
		return "set_name"
	case CmdGetNow:
		return "getnow"
	default:
		return "text"
	}
}

// Command is one incoming user request.
type Command struct {
	ChatID int64
	Kind   CommandKind
	Args   string
}

// Reply is what gets sent back. Keyboard attaches the "get rate now" button.
type Reply struct {
	Text     string
	Keyboard bool
}

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, cmd Command) Reply

// StartPolling begins long-polling for Telegram updates. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	on := func(kind CommandKind, args func(c tele.Context) string) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil {
				return nil
			}
			cmd := Command{ChatID: c.Chat().ID, Kind: kind}
			if args != nil {
				cmd.Args = strings.TrimSpace(args(c))
			}
			t.log.Info().Int64("chat_id", cmd.ChatID).Str("command", kind.String()).Msg("received command")

			reply := handler(ctx, cmd)
			if reply.Text == "" {
				return nil
			}
			opts := []interface{}{tele.ModeHTML}
			if reply.Keyboard {
				opts = append(opts, t.menu)
			}
			return c.Send(reply.Text, opts...)
		}
	}

	t.bot.Handle("/start", on(CmdStart, nil))
	t.bot.Handle("/set_name", on(CmdSetName, func(c tele.Context) string { return c.Message().Payload }))
	t.bot.Handle("/getnow", on(CmdGetNow, nil))
	t.bot.Handle(&t.btnNow, on(CmdGetNow, nil))
	t.bot.Handle(tele.OnText, on(CmdText, func(c tele.Context) string { return c.Text() }))

	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()

	t.log.Info().Msg("telegram polling started")
	t.bot.Start()
	t.log.Info().Msg("telegram polling stopped")
}
