package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"RatePulse/internal/calculator"
	"RatePulse/internal/model"
)

// ButtonGetNow is the label of the reply-keyboard button that requests the current rate.
const ButtonGetNow = "Get rate now"

// RateLine is one currency's entry in an outgoing message.
type RateLine struct {
	Currency model.Currency
	Rate     float64
	// Remark is the delta fragment, e.g. "rose by 1.2". Empty means no remark.
	Remark string
}

// FormatRateLine renders "<b>USD/RUB</b>: 91.2" with the remark appended in parentheses.
func FormatRateLine(l RateLine, quote model.Currency) string {
	s := fmt.Sprintf("<b>%s/%s</b>: %s", l.Currency.Upper(), quote.Upper(), calculator.FormatRate(l.Rate))
	if l.Remark != "" {
		s += " (" + l.Remark + ")"
	}
	return s
}

// FormatDailyReport formats the scheduled broadcast body.
func FormatDailyReport(day time.Time, lines []RateLine, quote model.Currency) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Exchange rates</b> | %s\n\n", day.Format("2006-01-02")))
	for _, l := range lines {
		b.WriteString(FormatRateLine(l, quote))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCurrentRates formats an on-demand reply. No delta remark is shown.
func FormatCurrentRates(obs []model.Observation, quote model.Currency, name string) string {
	var b strings.Builder
	b.WriteString("💱 <b>Current rates</b>\n\n")
	for _, o := range obs {
		b.WriteString(FormatRateLine(RateLine{Currency: o.Currency, Rate: o.Rate}, quote))
		b.WriteString("\n")
	}
	if name != "" {
		b.WriteString(fmt.Sprintf("\nHave a nice day, %s!", html.EscapeString(name)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWelcome is the reply to /start.
func FormatWelcome(currencies []model.Currency, quote model.Currency, hour, minute int, tz string) string {
	codes := make([]string, len(currencies))
	for i, c := range currencies {
		codes[i] = c.Upper()
	}
	return fmt.Sprintf("Hi! Every day at %02d:%02d (%s) I will send you the %s rate to %s 😊\n\n"+
		"Commands:\n/set_name <i>your name</i> - choose how I address you\n/getnow - current rate\n\n"+
		"Or press the button below to get the rate right now.",
		hour, minute, html.EscapeString(tz), strings.Join(codes, " and "), quote.Upper())
}

// FormatAliasSet confirms a stored alias.
func FormatAliasSet(alias string) string {
	return fmt.Sprintf("From now on I will call you %s!", html.EscapeString(alias))
}

const (
	AliasUsage = "Please send /set_name followed by your name or nickname, separated by a space."
	Apology    = "Sorry, I could not get the exchange rate right now. Please try again a bit later 🙏"
	ErrorReply = "Sorry, something went wrong. Please try again later."
)
