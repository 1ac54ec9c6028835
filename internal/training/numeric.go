package training

import (
	"math"
	"strconv"
	"strings"
)

// units that may trail a weight or distance entry. Longer suffixes first.
var quantityUnits = []string{"kgs", "kg", "lbs", "lb", "km", "mi", "m"}

// ParseQuantity reads a user-entered weight, reps or distance string as a
// non-negative number. It tolerates surrounding spaces, a decimal comma, a
// leading "+" (bodyweight-plus notation) and a trailing unit.
func ParseQuantity(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, u := range quantityUnits {
		if strings.HasSuffix(s, u) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u))
			break
		}
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.Replace(s, ",", ".", 1)
	if !isDecimal(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func parsePtr(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return ParseQuantity(*s)
}

// isDecimal reports whether s is plain digits with at most one decimal
// point. Exponents, hex and signs are refused.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseReps reads a whole repetition count. Units are not stripped, so
// "AMRAP", "10.5", "5m" and "" fail.
func ParseReps(s *string) (int, bool) {
	if s == nil {
		return 0, false
	}
	t := strings.TrimSpace(*s)
	for i := 0; i < len(t); i++ {
		if t[i] < '0' || t[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(t)
	if err != nil || n > math.MaxInt32 {
		return 0, false
	}
	return n, true
}

// ParseRepRange reads "8-12" (hyphen or en dash) or a single "10".
func ParseRepRange(s string) (lo, hi int, ok bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "–", "-"))
	if s == "" {
		return 0, 0, false
	}
	a, b, found := strings.Cut(s, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || lo < 0 {
		return 0, 0, false
	}
	if !found {
		return lo, lo, true
	}
	hi, err = strconv.Atoi(strings.TrimSpace(b))
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// FormatQuantity rounds to three decimals and drops trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(round3(v), 'f', -1, 64)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
