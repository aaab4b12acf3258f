// Package timelog turns user supplied time-logged values into minutes.
//
// Two shapes are accepted: a plain count of minutes ("90") and a
// composite duration made of space separated periods ("1h 30m").
package timelog

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"tracker/internal/models"
)

// Field is the request field the errors of this package are reported on.
const Field = "time_logged"

const (
	MsgNotPositive  = "You have to log more than 0 minutes"
	MsgWrongValues  = "Wrong values"
	MsgRepeated     = "You cannot repeat periods"
	MsgInvalidUnits = "You can only use those characters to describe periods: m, h, d, w"
	MsgFirstZero    = "First period has to be greater than 0"
)

// maxDigits bounds the digits of a single number, so a short value can
// never expand into a huge decimal.
const maxDigits = 15

// minutesPerUnit maps a period character to its length in minutes.
var minutesPerUnit = map[rune]decimal.Decimal{
	'm': decimal.NewFromInt(1),
	'h': decimal.NewFromInt(60),
	'd': decimal.NewFromInt(1440),
	'w': decimal.NewFromInt(10080),
}

type period struct {
	unit      rune
	magnitude decimal.Decimal
}

// Normalize converts raw into canonical minutes. The result of a composite
// duration keeps its fractional part.
func Normalize(raw string) (decimal.Decimal, error) {
	if trimmed := strings.TrimSpace(raw); isInteger(trimmed) {
		if len(strings.TrimLeft(trimmed, "+-")) > maxDigits {
			return decimal.Zero, invalid(MsgWrongValues)
		}
		minutes, err := decimal.NewFromString(trimmed)
		if err != nil {
			return decimal.Zero, invalid(MsgWrongValues)
		}
		if !minutes.IsPositive() {
			return decimal.Zero, invalid(MsgNotPositive)
		}
		return minutes, nil
	}

	periods, err := parsePeriods(raw)
	if err != nil {
		return decimal.Zero, err
	}

	seen := make(map[rune]struct{}, len(periods))
	for _, p := range periods {
		if _, dup := seen[p.unit]; dup {
			return decimal.Zero, invalid(MsgRepeated)
		}
		seen[p.unit] = struct{}{}
	}
	for unit := range seen {
		if _, ok := minutesPerUnit[unit]; !ok {
			return decimal.Zero, invalid(MsgInvalidUnits)
		}
	}

	// Positional rule: negative magnitudes were clamped already, so a
	// leading "-1h" ends up here as well.
	if periods[0].magnitude.IsZero() {
		return decimal.Zero, invalid(MsgFirstZero)
	}

	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p.magnitude.Mul(minutesPerUnit[p.unit]))
	}
	return total, nil
}

// parsePeriods splits raw on single spaces. The last character of every
// token is its unit, the rest its magnitude. Negative magnitudes become 0.
func parsePeriods(raw string) ([]period, error) {
	tokens := strings.Split(raw, " ")
	periods := make([]period, 0, len(tokens))
	for _, token := range tokens {
		unit, size := utf8.DecodeLastRuneInString(token)
		if size == 0 {
			return nil, invalid(MsgWrongValues)
		}
		raw := token[:len(token)-size]
		if !isMagnitude(raw) {
			return nil, invalid(MsgWrongValues)
		}
		magnitude, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, invalid(MsgWrongValues)
		}
		if magnitude.IsNegative() {
			magnitude = decimal.Zero
		}
		periods = append(periods, period{unit: unit, magnitude: magnitude})
	}
	return periods, nil
}

func isInteger(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return s != "" && allDigits(s)
}

// isMagnitude accepts an optional minus sign followed by digits with at
// most one decimal point. Exponents, plus signs, NaN and Inf are refused.
func isMagnitude(s string) bool {
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	digits := len(whole) + len(frac)
	return digits > 0 && digits <= maxDigits && allDigits(whole) && allDigits(frac)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func invalid(msg string) error {
	return models.NewValidationError(Field, msg)
}
