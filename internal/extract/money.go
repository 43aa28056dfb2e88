package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMoney parses a currency amount from message text. A leading dollar
// sign and thousands separators are stripped; the result is rounded to two
// decimal places.
func ParseMoney(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("parse money: empty value")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Round2(v), nil
}

// Round2 rounds half-up to two decimal places. The epsilon counters binary
// representation error so that values like 1.005 round to 1.01 instead of
// landing on the 1.004999... float and rounding down.
func Round2(v float64) float64 {
	return math.Round((v+1e-9)*100) / 100
}
