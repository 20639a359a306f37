package docnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatZeroPadsToThreeDigits(t *testing.T) {
	assert.Equal(t, "INV-001", Format(InvoicePrefix, 1))
	assert.Equal(t, "INV-042", Format(InvoicePrefix, 42))
	assert.Equal(t, "QT-100", Format(QuotationPrefix, 100))
	// Counters past 999 keep growing without truncation.
	assert.Equal(t, "QT-1234", Format(QuotationPrefix, 1234))
}
