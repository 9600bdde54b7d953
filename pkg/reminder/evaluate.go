package reminder

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// Currency is appended to every formatted amount.
const Currency = "UAH"

// Evaluate maps a credit and the current day to at most one alert.
//
// Alerts fire only on exact day counts: any overdue day, the due day, one, three
// and five days ahead. Every other day is intentionally silent. A missing or
// unparsable deadline yields no alert.
func Evaluate(c model.Credit, today time.Time) (model.Alert, bool) {
	if c.Deadline == "" {
		return model.Alert{}, false
	}
	deadline, err := time.Parse(model.DateLayout, c.Deadline)
	if err != nil {
		return model.Alert{}, false
	}

	daysLeft := DaysBetween(today, deadline)
	tier, ok := TierFor(daysLeft)
	if !ok {
		return model.Alert{}, false
	}

	return model.Alert{
		Tier:     tier,
		CreditID: c.ID,
		DaysLeft: daysLeft,
		Message:  render(tier, c),
	}, true
}

// TierFor returns the alert tier for a day count, or false when the day is silent.
func TierFor(daysLeft int) (model.Tier, bool) {
	switch {
	case daysLeft < 0:
		return model.TierOverdue, true
	case daysLeft == 0:
		return model.TierDueToday, true
	case daysLeft == 1:
		return model.TierDueTomorrow, true
	case daysLeft == 3:
		return model.TierDueSoon, true
	case daysLeft == 5:
		return model.TierUpcoming, true
	default:
		return "", false
	}
}

// DaysBetween counts whole calendar days from from to to. Both are reduced to
// their calendar dates first, so time of day and DST shifts do not matter.
func DaysBetween(from, to time.Time) int {
	d := model.Civil(to).Sub(model.Civil(from))
	return int(math.Round(d.Hours() / 24))
}

// FormatAmount renders an amount with no decimals and thousands grouped by a
// space: 10000 -> "10 000".
func FormatAmount(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)

	var b strings.Builder
	if v < 0 && digits != "0" {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func render(tier model.Tier, c model.Credit) string {
	bank := html.EscapeString(c.Bank)
	amount := FormatAmount(c.Amount) + " " + Currency

	switch tier {
	case model.TierOverdue:
		return fmt.Sprintf("🔴 <b>OVERDUE!</b>\n%s: %s (was due %s)", bank, amount, html.EscapeString(c.Deadline))
	case model.TierDueToday:
		return fmt.Sprintf("🚨 <b>TODAY!</b>\n%s: %s must be paid today!", bank, amount)
	case model.TierDueTomorrow:
		return fmt.Sprintf("⚠️ <b>%s</b>: %s is due tomorrow!", bank, amount)
	case model.TierDueSoon:
		return fmt.Sprintf("⏳ <b>%s</b>: %s, 3 days left, a good time to pay", bank, amount)
	default:
		return fmt.Sprintf("📅 <b>%s</b>: %s is due in 5 days", bank, amount)
	}
}
