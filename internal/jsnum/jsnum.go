// Package jsnum converts between float64 and the textual number forms of
// the language: the Number-to-String algorithm and the String-to-Number
// grammar.
package jsnum

import (
	"math"
	"strconv"
	"strings"
)

// Format renders f the way Number.prototype.toString() does: shortest
// round-trip digits, exponent notation outside [1e-7, 1e21).
func Format(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// includes -0
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// d.ddddde±XX
	repr := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expStr, _ := strings.Cut(repr, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, err := strconv.Atoi(expStr)
	if err != nil {
		panic("bug: unexpected float format: " + repr)
	}

	k := len(digits)
	n := exp + 1

	var sb strings.Builder
	sb.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		sb.WriteString(digits)
		sb.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		sb.WriteString(digits[:n])
		sb.WriteByte('.')
		sb.WriteString(digits[n:])
	case -6 < n && n <= 0:
		sb.WriteString("0.")
		sb.WriteString(strings.Repeat("0", -n))
		sb.WriteString(digits)
	default:
		sb.WriteByte(digits[0])
		if k > 1 {
			sb.WriteByte('.')
			sb.WriteString(digits[1:])
		}
		sb.WriteByte('e')
		if n-1 >= 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.Itoa(n - 1))
	}
	return sb.String()
}

// FormatRadix renders f in the given radix (2..36). Non-integral values are
// written with up to 52 fractional digits.
func FormatRadix(f float64, radix int) string {
	if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Format(f)
	}
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	intPart, frac := math.Modf(f)
	var s string
	if intPart < 1<<63 {
		s = strconv.FormatUint(uint64(intPart), radix)
	} else {
		// beyond uint64, go digit by digit
		var rev []byte
		for intPart >= 1 {
			d := math.Mod(intPart, float64(radix))
			rev = append(rev, "0123456789abcdefghijklmnopqrstuvwxyz"[int(d)])
			intPart = math.Floor(intPart / float64(radix))
		}
		for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
			rev[i], rev[j] = rev[j], rev[i]
		}
		s = string(rev)
	}

	if frac > 0 {
		var sb strings.Builder
		sb.WriteString(s)
		sb.WriteByte('.')
		for i := 0; i < 52 && frac > 0; i++ {
			frac *= float64(radix)
			d, rest := math.Modf(frac)
			sb.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[int(d)])
			frac = rest
		}
		s = sb.String()
	}
	return sign + s
}

// IsSpace reports whether r is white space or a line terminator for the
// purposes of trimming.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return false
}

// Parse implements ToNumber applied to a string. The empty (or all blank)
// string is 0; hexadecimal integers, decimal literals and the Infinity
// spellings are recognized; anything else is NaN.
func Parse(s string) float64 {
	s = strings.TrimFunc(s, IsSpace)
	if s == "" {
		return 0
	}

	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return parseHex(s[2:])
	}

	body := s
	sign := 1.0
	switch body[0] {
	case '+':
		body = body[1:]
	case '-':
		sign = -1
		body = body[1:]
	}
	if body == "Infinity" {
		return sign * math.Inf(1)
	}
	if !isDecimalLiteral(body) {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		// out of range already yields ±Inf in f
		if numErr, ok := err.(*strconv.NumError); !ok || numErr.Err != strconv.ErrRange {
			return math.NaN()
		}
	}
	return sign * f
}

func parseHex(digits string) float64 {
	var value float64
	for i := 0; i < len(digits); i++ {
		d := hexDigit(digits[i])
		if d < 0 {
			return math.NaN()
		}
		value = value*16 + float64(d)
	}
	return value
}

func hexDigit(ch byte) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'f':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'F':
		return int(ch-'A') + 10
	}
	return -1
}

// isDecimalLiteral matches  digits [. digits] [e [+-] digits]  where at
// least one digit appears in the mantissa.
func isDecimalLiteral(s string) bool {
	i := 0
	mantissaDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissaDigits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			mantissaDigits++
		}
	}
	if mantissaDigits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

// ParseIntPrefix implements parseInt: it reads the longest prefix of digits
// valid in radix, or returns NaN if there is none. radix 0 means 10, or 16
// with a 0x prefix.
func ParseIntPrefix(s string, radix int) float64 {
	s = strings.TrimFunc(s, IsSpace)
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	stripPrefix := radix == 0 || radix == 16
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}

	var value float64
	n := 0
	for ; n < len(s); n++ {
		d := digitValue(s[n])
		if d < 0 || d >= radix {
			break
		}
		value = value*float64(radix) + float64(d)
	}
	if n == 0 {
		return math.NaN()
	}
	return sign * value
}

func digitValue(ch byte) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'z':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'Z':
		return int(ch-'A') + 10
	}
	return -1
}

// ParseFloatPrefix implements parseFloat: the longest prefix that forms a
// decimal literal, or Infinity.
func ParseFloatPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, IsSpace)
	start := 0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		start = 1
	}
	if strings.HasPrefix(s[start:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	best := -1
	for end := len(s); end > start; end-- {
		if isDecimalLiteral(s[start:end]) {
			best = end
			break
		}
	}
	if best < 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:best], 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); !ok || numErr.Err != strconv.ErrRange {
			return math.NaN()
		}
	}
	return f
}
