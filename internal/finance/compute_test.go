package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateSubstringDispatch(t *testing.T) {
	assert.Equal(t, 0.18, Rate("IGST_18"))
	assert.Equal(t, 0.18, Rate("CGST_SGST_18"))
	assert.Equal(t, 0.12, Rate("IGST_12"))
	assert.Equal(t, 0.05, Rate("CGST_SGST_5"))
	// Unknown tags fall back to 18%.
	assert.Equal(t, 0.18, Rate(""))
	assert.Equal(t, 0.18, Rate("VAT"))
}

func TestComputeExclusive(t *testing.T) {
	got := Compute([]Line{{Description: "Black Plain", Size: "42", Quantity: 2, Rate: 500}}, "IGST_18", ModeExclusive, false)

	assert.InDelta(t, 1000.00, got.Subtotal, 1e-9)
	assert.InDelta(t, 180.00, got.TaxAmount, 1e-9)
	assert.InDelta(t, 1180.00, got.GrandTotal, 1e-9)

	// grandTotal == subtotal + taxAmount and taxAmount == subtotal × rate.
	assert.InDelta(t, got.Subtotal+got.TaxAmount, got.GrandTotal, 1e-9)
	assert.InDelta(t, got.Subtotal*Rate("IGST_18"), got.TaxAmount, 1e-9)
}

func TestComputeInclusive(t *testing.T) {
	got := Compute([]Line{{Description: "Black Plain", Size: "42", Quantity: 1, Rate: 1180}}, "CGST_SGST_18", ModeInclusive, false)

	// Items total is treated as the tax-inclusive grand total.
	assert.InDelta(t, 1180.00, got.GrandTotal, 1e-9)
	assert.InDelta(t, 1000.00, got.Subtotal, 1e-6)
	assert.InDelta(t, 180.00, got.TaxAmount, 1e-6)
	assert.InDelta(t, got.GrandTotal/(1+Rate("CGST_SGST_18")), got.Subtotal, 1e-9)
}

func TestComputeComplimentaryOverridesEverything(t *testing.T) {
	got := Compute([]Line{{Description: "X", Size: "40", Quantity: 10, Rate: 999}}, "IGST_18", ModeExclusive, true)
	assert.Zero(t, got.Subtotal)
	assert.Zero(t, got.TaxAmount)
	assert.Zero(t, got.GrandTotal)

	// Mode and tax type are irrelevant once complimentary is set.
	got = Compute([]Line{{Description: "X", Size: "40", Quantity: 10, Rate: 999}}, "CGST_SGST_5", ModeInclusive, true)
	assert.Equal(t, Totals{}, got)
}

func TestComputeIsPure(t *testing.T) {
	items := []Line{
		{Description: "A", Size: "38", Quantity: 3, Rate: 250.50},
		{Description: "B", Size: "40", Quantity: 7, Rate: 99.99},
	}
	first := Compute(items, "CGST_SGST_12", ModeInclusive, false)
	second := Compute(items, "CGST_SGST_12", ModeInclusive, false)
	assert.Equal(t, first, second)
}

func TestComputeZeroItems(t *testing.T) {
	got := Compute(nil, "IGST_18", ModeExclusive, false)
	assert.Equal(t, Totals{}, got)

	// Zero-quantity or zero-rate lines contribute nothing.
	got = Compute([]Line{{Quantity: 0, Rate: 500}, {Quantity: 5, Rate: 0}}, "IGST_18", ModeExclusive, false)
	assert.Zero(t, got.GrandTotal)
}

func TestBreakdown(t *testing.T) {
	b := Breakdown("IGST_18", 180)
	require.NotNil(t, b.IGST)
	assert.Equal(t, 180.0, *b.IGST)
	assert.Nil(t, b.CGST)
	assert.Nil(t, b.SGST)

	b = Breakdown("CGST_SGST_18", 180)
	require.NotNil(t, b.CGST)
	require.NotNil(t, b.SGST)
	assert.Equal(t, 90.0, *b.CGST)
	assert.Equal(t, 90.0, *b.SGST)
	assert.Nil(t, b.IGST)

	// The split never changes the underlying amount.
	assert.InDelta(t, 180.0, *b.CGST+*b.SGST, 1e-9)
}

func TestValidLines(t *testing.T) {
	items := []Line{
		{Description: "Keep", Size: "42", Quantity: 1, Rate: 10},
		{Description: "", Size: "42", Quantity: 1, Rate: 10},
		{Description: "No size", Size: "", Quantity: 1, Rate: 10},
		{Description: "Zero qty", Size: "40", Quantity: 0, Rate: 10},
		{Description: "Zero rate", Size: "40", Quantity: 2, Rate: 0},
	}
	got := ValidLines(items)
	require.Len(t, got, 1)
	assert.Equal(t, "Keep", got[0].Description)
}
