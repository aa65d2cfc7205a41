// ABOUTME: Monetary helpers for values stored as integer centavos
// ABOUTME: Formats and parses Brazilian currency strings without floats
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCentavos renders integer centavos as a Brazilian currency string,
// e.g. 69010 -> "R$ 690,10".
func FormatCentavos(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	reais := v / 100
	cents := v % 100

	digits := strconv.FormatInt(reais, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents)
}

// ParseCentavos parses a Brazilian currency string ("R$ 1.234,56") into
// integer centavos. The empty string parses to zero.
func ParseCentavos(s string) (int64, error) {
	clean := strings.NewReplacer("R$", "", " ", "", ".", "").Replace(s)
	clean = strings.ReplaceAll(clean, ",", ".")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, nil
	}
	return CentsFromDecimalString(clean)
}

// CentsFromDecimalString converts a dot-decimal string ("1234.56") into
// integer centavos using integer arithmetic only. More than two decimal
// places are truncated.
func CentsFromDecimalString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid monetary value: empty")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	reais, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid monetary value: %q", s)
	}

	var cents int64
	if frac != "" {
		frac = (frac + "00")[:2]
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid monetary value: %q", s)
		}
	}

	total := reais*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}
