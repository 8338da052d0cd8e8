package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSignature(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Signature
	}{
		{
			name: "signer and date",
			text: "Referral Form\nDigitally Signed by\nDr. Jane Doe\nDate: 01-02-2024 10:00 IST",
			want: Signature{Signer: "Dr. Jane Doe", Date: "01-02-2024 10:00 IST"},
		},
		{
			name: "date outside the window",
			text: "Digitally signed by\nDr. Jane Doe\nRegistration 1234\nCity Hospital\nDate: 01.02.2024",
			want: Signature{Signer: "Dr. Jane Doe"},
		},
		{
			name: "date without time",
			text: "DIGITALLY SIGNED BY\n  Dr. A. Rao  \ndate: 2024-02-01",
			want: Signature{Signer: "Dr. A. Rao", Date: "2024-02-01"},
		},
		{
			name: "signature on last line",
			text: "Summary\nDigitally signed by",
			want: Signature{},
		},
		{
			name: "no signature",
			text: "Date: 01-02-2024",
			want: Signature{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSignature(tt.text))
		})
	}
}

func TestScanSignature(t *testing.T) {
	text := "Date: 01-01-2024\nDigitally signed by\nDr. Jane Doe\nRegistration 1234\nCity Hospital\nDate: 05-01-2024 09:30 GMT"

	sig := ScanSignature(text)

	assert.Equal(t, "Dr. Jane Doe", sig.Signer)
	assert.Equal(t, "05-01-2024 09:30 GMT", sig.Date)
	assert.Equal(t, Signature{}, ScanSignature(""))
}
