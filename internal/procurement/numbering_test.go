package procurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVendorCode(t *testing.T) {
	cases := map[string]string{
		"LKQ Corporation":       "LKQC",
		"PPG":                   "PPGX",
		"O'Reilly Auto Parts":   "OREI",
		"A1 Discount Parts":     "ADIS",
		"鈑金 Supply":             "鈑金SU",
		"":                      "XXXX",
		"x":                     "XXXX",
		"Safelite AutoGlass":    "SAFE",
		"Factory Direct OEM Co": "FACT",
	}
	for name, want := range cases {
		require.Equal(t, want, VendorCode(name), "name %q", name)
	}
}

func TestFormatPONumber(t *testing.T) {
	at := time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC)
	require.Equal(t, "RO-7741-2501-SAFE-007", FormatPONumber("RO-7741", at, "Safelite AutoGlass", 7))

	december := time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2412", YearMonth(december))
}
