package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"gopkg.in/guregu/null.v4"
)

const emptyValue = "—"

var weekdayNames = [7]string{"Seg", "Ter", "Qua", "Qui", "Sex", "Sáb", "Dom"}

// FormatCents renders an amount in cents as Brazilian reais, e.g. "R$ 1.234,50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "R$ " + humanize.FormatFloat("#.###,##", float64(cents)/100)
}

// FormatNullCents is FormatCents for optional amounts.
func FormatNullCents(cents null.Int) string {
	if !cents.Valid {
		return emptyValue
	}
	return FormatCents(cents.Int64)
}

// ParseCents reads a reais amount typed by the user: "12", "12,5", "1.234,50"
// or "12.50".
func ParseCents(value string) (int64, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("valor vazio")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("valor inválido %q", value)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("valor inválido %q", value)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("valor inválido %q", value)
	}
	return w*100 + f, nil
}

// WeekdayName returns the short pt-BR name of an API weekday (0 = Monday).
func WeekdayName(apiWeekday int) string {
	if apiWeekday < 0 || apiWeekday >= len(weekdayNames) {
		return "?"
	}
	return weekdayNames[apiWeekday]
}

// formatUpdated renders how long ago a snapshot was taken.
func formatUpdated(t, now time.Time) string {
	if t.IsZero() {
		return "nunca"
	}
	if now.Sub(t) < 5*time.Second {
		return "agora"
	}
	return humanize.RelTime(t, now, "atrás", "depois")
}

// formatDuration renders an elapsed parking time such as "2h05".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%dmin", minutes)
	}
	return fmt.Sprintf("%dh%02d", hours, minutes)
}

// truncate cuts s to width runes, ending with an ellipsis when shortened.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}

// pad left-aligns s in a column of width runes.
func pad(s string, width int) string {
	s = truncate(s, width)
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
