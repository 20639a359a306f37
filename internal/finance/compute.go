// Package finance derives document totals from raw line items. Pure
// computation, no I/O; callers persist the result.
package finance

import "strings"

// Tax modes.
const (
	ModeInclusive = "inclusive"
	ModeExclusive = "exclusive"
)

// Line is the slice of a line item the engine needs.
type Line struct {
	Description string
	Size        string
	Quantity    int
	Rate        float64
}

// Totals are the three derived amounts stored on a quotation or invoice.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	TaxAmount  float64 `json:"tax_amount"`
	GrandTotal float64 `json:"grand_total"`
}

// TaxBreakdown is the presentation decomposition of an already-computed tax
// amount. For a state-pair regime the amount is shown as two equal halves; the
// underlying TaxAmount is unchanged either way.
type TaxBreakdown struct {
	IGST *float64 `json:"igst,omitempty"`
	CGST *float64 `json:"cgst,omitempty"`
	SGST *float64 `json:"sgst,omitempty"`
}

// Rate maps a tax-type tag to a decimal rate by substring: any tag containing
// "18" is 18%, "12" is 12%, "5" is 5%, anything else defaults to 18%. The
// substring dispatch is a deliberate convention carried over from the original
// workflow; do not replace it with an exact-match lookup, which would silently
// change the default behavior for unrecognized tags.
func Rate(taxType string) float64 {
	switch {
	case strings.Contains(taxType, "18"):
		return 0.18
	case strings.Contains(taxType, "12"):
		return 0.12
	case strings.Contains(taxType, "5"):
		return 0.05
	default:
		return 0.18
	}
}

// Compute turns line items plus tax flags into totals.
//
// The complimentary flag is a hard override evaluated first: everything is
// zero regardless of items. In inclusive mode the items total is treated as
// the tax-inclusive grand total and the subtotal is backed out; in exclusive
// mode tax is added on top. Amounts are always derived from quantity×rate,
// never from a caller-supplied amount.
func Compute(items []Line, taxType, taxMode string, complimentary bool) Totals {
	if complimentary {
		return Totals{}
	}

	var itemsTotal float64
	for _, it := range items {
		itemsTotal += float64(it.Quantity) * it.Rate
	}

	rate := Rate(taxType)

	if taxMode == ModeInclusive {
		grand := itemsTotal
		subtotal := grand / (1 + rate)
		return Totals{
			Subtotal:   subtotal,
			TaxAmount:  grand - subtotal,
			GrandTotal: grand,
		}
	}

	subtotal := itemsTotal
	tax := subtotal * rate
	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal + tax,
	}
}

// Breakdown splits a computed tax amount for display. "IGST*" tags are a single
// national tax line; everything else is treated as the CGST+SGST state pair and
// split into two equal halves.
func Breakdown(taxType string, taxAmount float64) TaxBreakdown {
	if strings.HasPrefix(taxType, "IGST") {
		return TaxBreakdown{IGST: &taxAmount}
	}
	half := taxAmount / 2
	return TaxBreakdown{CGST: &half, SGST: &half}
}

// ValidLines filters out lines the engine should not see: the caller-side rule
// that a line needs a description, a size, a positive quantity and a positive
// rate before it counts.
func ValidLines(items []Line) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Description == "" || it.Size == "" {
			continue
		}
		if it.Quantity <= 0 || it.Rate <= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}
