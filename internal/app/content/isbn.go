package content

import "strings"

// NormalizeISBN strips separators from raw and returns the ISBN-13 form.
// ISBN-10 input is converted; anything with a bad checksum is rejected.
func NormalizeISBN(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		case r == '-' || r == ' ':
		default:
			return "", false
		}
	}
	s := b.String()
	switch len(s) {
	case 10:
		if !validISBN10(s) {
			return "", false
		}
		body := "978" + s[:9]
		return body + string(isbn13CheckDigit(body)), true
	case 13:
		if strings.ContainsRune(s, 'X') || isbn13CheckDigit(s[:12]) != s[12] {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		var d int
		switch {
		case s[i] == 'X' && i == 9:
			d = 10
		case s[i] >= '0' && s[i] <= '9':
			d = int(s[i] - '0')
		default:
			return false
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}

func isbn13CheckDigit(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}
