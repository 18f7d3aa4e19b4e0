package mrz

// ICAO 9303 check digits: characters map to values (digits to themselves,
// A-Z to 10-35, filler to 0), each value is multiplied by the repeating
// weight cycle 7,3,1 and the sum is reduced modulo 10.

var weights = [3]int{7, 3, 1}

// charValue maps an MRZ character to its checksum value. Characters outside
// [0-9A-Z<] count as zero, matching the filler.
func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 0
	}
}

// CheckDigit computes the weighted mod-10 check digit for s.
func CheckDigit(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += charValue(s[i]) * weights[i%3]
	}
	return sum % 10
}

// verifyCheckDigit compares the check digit character against the computed
// digit for data. A '<' digit means "not provided" and always verifies.
func verifyCheckDigit(data string, digit byte) bool {
	if digit == '<' {
		return true
	}
	return digit == byte('0'+CheckDigit(data))
}

// ExpandYear widens a two-digit MRZ year: values above 50 land in the
// 1900s, the rest in the 2000s.
func ExpandYear(yy int) int {
	if yy > 50 {
		return 1900 + yy
	}
	return 2000 + yy
}
