package money

// CleanDigits repairs letters OCR commonly reads in place of digits, but only
// where they touch a digit: "1O5" becomes "105" and "2I" becomes "21", while
// keywords such as "MONTANT" or "TOTAL" stay intact. The result has the same
// length as s so offsets found in one apply to the other.
func CleanDigits(s string) string {
	b := []byte(s)
	for i := range b {
		var digit byte
		switch b[i] {
		case 'O', 'o':
			digit = '0'
		case 'I', 'l':
			digit = '1'
		default:
			continue
		}
		prevDigit := i > 0 && isDigit(b[i-1])
		nextDigit := i+1 < len(b) && isDigit(b[i+1])
		switch {
		case prevDigit && (nextDigit || i+1 == len(b) || isBoundary(b[i+1])):
			b[i] = digit
		case nextDigit && (i == 0 || isBoundary(b[i-1])):
			b[i] = digit
		}
	}
	return string(b)
}

func isBoundary(c byte) bool {
	return c == ' ' || c == ',' || c == '.' || c == '\t'
}
