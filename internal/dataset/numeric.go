package dataset

import (
	"strconv"
	"strings"
)

// Locale fixes the decimal and thousands separators used when parsing numbers.
// Zero runes auto-detect per value.
type Locale struct {
	Decimal   rune
	Thousands rune
}

// ParseNumber parses s as a number, accepting grouped digits ("1,234.5",
// "1.234,5", "1 234") and exponents. Anything that is not digits, signs,
// separators or an exponent is rejected, so "NaN", "Inf" and hex floats stay text.
func ParseNumber(s string, loc Locale) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if !looksNumeric(raw) {
		return 0, false
	}
	dec, thou := loc.Decimal, loc.Thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			// "3,5" reads as a decimal comma; "1,000" stays a grouping comma
			dec = ','
		default:
			dec = '.'
		}
	}
	if !groupedOK(raw, dec, thou) {
		return 0, false
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func looksNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == '.' || r == ',' || r == ' ' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return digits > 0
}

// groupedOK reports whether the separators in the integer part of raw form
// thousands groups: one separator rune, a lead group of 1-3 digits, then
// groups of exactly 3. The fraction and exponent may not contain separators.
func groupedOK(raw string, dec, thou rune) bool {
	isSep := func(r rune) bool {
		if thou != 0 {
			return r == thou && r != dec
		}
		return r != dec && (r == ',' || r == '.' || r == ' ')
	}
	intPart, rest := raw, ""
	if i := strings.IndexRune(raw, dec); i >= 0 {
		intPart, rest = raw[:i], raw[i:]
	} else if i := strings.IndexAny(raw, "eE"); i >= 0 {
		intPart, rest = raw[:i], raw[i:]
	}
	if strings.IndexFunc(rest, isSep) >= 0 {
		return false
	}
	intPart = strings.TrimLeft(intPart, "+-")

	var groups []string
	var sep rune
	start := 0
	for i, r := range intPart {
		if !isSep(r) {
			continue
		}
		if sep != 0 && r != sep {
			return false
		}
		sep = r
		groups = append(groups, intPart[start:i])
		start = i + 1
	}
	if sep == 0 {
		return true
	}
	groups = append(groups, intPart[start:])
	for i, g := range groups {
		if (i == 0 && (len(g) < 1 || len(g) > 3)) || (i > 0 && len(g) != 3) {
			return false
		}
	}
	return true
}
