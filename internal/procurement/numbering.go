package procurement

import (
	"fmt"
	"time"
	"unicode"
)

// VendorCode derives the four-letter vendor token used in PO numbers.
// Non-letters are dropped and short names are padded with X.
func VendorCode(name string) string {
	code := make([]rune, 0, 4)
	for _, r := range name {
		if unicode.IsLetter(r) {
			code = append(code, unicode.ToUpper(r))
			if len(code) == 4 {
				break
			}
		}
	}
	for len(code) < 4 {
		code = append(code, 'X')
	}
	return string(code)
}

// YearMonth renders the YYMM token for a point in time.
func YearMonth(t time.Time) string {
	return t.Format("0601")
}

// FormatPONumber renders {RO}-{YYMM}-{VVVV}-{SSS}. The sequence is
// allocated atomically per (vendor, month) by the repository.
func FormatPONumber(roNumber string, t time.Time, vendorName string, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%03d", roNumber, YearMonth(t), VendorCode(vendorName), seq)
}
