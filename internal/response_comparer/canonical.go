package response_comparer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// lineEndingsOnlyDiff is reported when two texts differ but split into the
// same lines, e.g. one has a trailing newline and the other does not.
const lineEndingsOnlyDiff = "Bodies differ only in line endings"

// CanonicalJSON serialises a decoded JSON value with recursively sorted keys
// and two-space indentation. Numbers are rewritten in one spelling per value,
// and non-ASCII and HTML-significant characters are written literally.
func CanonicalJSON(value any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	// maps are always encoded with sorted keys
	if err := encoder.Encode(normaliseNumbers(value)); err != nil {
		return "", err
	}

	return unescapeLineSeparators(strings.TrimSuffix(buf.String(), "\n")), nil
}

func normaliseNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		return json.Number(canonicalNumber(string(v)))
	case map[string]any:
		normalised := make(map[string]any, len(v))
		for key, item := range v {
			normalised[key] = normaliseNumbers(item)
		}
		return normalised
	case []any:
		normalised := make([]any, len(v))
		for i, item := range v {
			normalised[i] = normaliseNumbers(item)
		}
		return normalised
	default:
		return value
	}
}

// canonicalNumber keeps integer literals exact and writes every other number
// as the shortest float64 repr: fixed notation with at least one decimal for
// exponents in [-4, 16), otherwise "1.5e+300" style. Literals outside the
// float64 range are kept as sent.
func canonicalNumber(literal string) string {
	if !strings.ContainsAny(literal, ".eE") {
		if literal == "-0" {
			return "0"
		}
		return literal
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}

	if f != 0 {
		exp := floatExponent(f)
		if exp < -4 || exp >= 16 {
			return strconv.FormatFloat(f, 'e', -1, 64)
		}
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// floatExponent returns the decimal exponent of f's shortest representation.
func floatExponent(f float64) int {
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	return exp
}

// unescapeLineSeparators undoes encoding/json's unconditional escaping of
// U+2028 and U+2029. Escaped backslashes are copied through as pairs, so a
// six-character `\u2028` in the source text is left alone.
func unescapeLineSeparators(encoded string) string {
	if !strings.Contains(encoded, `\u202`) {
		return encoded
	}

	var sb strings.Builder
	sb.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '\\' || i+1 >= len(encoded) {
			sb.WriteByte(c)
			continue
		}

		switch rest := encoded[i+1:]; {
		case strings.HasPrefix(rest, "u2028"):
			sb.WriteRune('\u2028')
			i += 5
		case strings.HasPrefix(rest, "u2029"):
			sb.WriteRune('\u2029')
			i += 5
		default:
			sb.WriteByte(c)
			sb.WriteByte(encoded[i+1])
			i++
		}
	}
	return sb.String()
}

// UnifiedDiff returns a unified line diff between two texts with three lines
// of context. The result has no trailing newline.
func UnifiedDiff(textA string, textB string, labelA string, labelB string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(textA),
		B:        splitLines(textB),
		FromFile: labelA,
		ToFile:   labelB,
		Context:  3,
	})
	if err != nil || diff == "" {
		if textA != textB {
			return lineEndingsOnlyDiff
		}
		return ""
	}

	return strings.TrimSuffix(diff, "\n")
}

// splitLines breaks text into lines, each terminated by a single "\n". "\r\n"
// counts as one break, as do "\n", "\r", "\v", "\f", the file, group and
// record separators, NEL, and U+2028/U+2029. A trailing break does not start
// an extra empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}

		lines = append(lines, text[start:i]+"\n")
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}

	if start < len(text) {
		lines = append(lines, text[start:]+"\n")
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
