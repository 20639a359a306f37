package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotationTransitions(t *testing.T) {
	assert.True(t, CanTransition(DocQuotation, StatusDraft, StatusSent))
	assert.True(t, CanTransition(DocQuotation, StatusSent, StatusAccepted))
	assert.True(t, CanTransition(DocQuotation, StatusAccepted, StatusInvoiced))
	assert.True(t, CanTransition(DocQuotation, StatusRejected, StatusPending))

	// Invoiced is terminal and conversion requires acceptance first.
	assert.False(t, CanTransition(DocQuotation, StatusInvoiced, StatusDraft))
	assert.False(t, CanTransition(DocQuotation, StatusDraft, StatusInvoiced))
	assert.False(t, CanTransition(DocQuotation, StatusSent, StatusDraft))
}

func TestInvoiceTransitions(t *testing.T) {
	assert.True(t, CanTransition(DocInvoice, StatusUnpaid, StatusPaid))
	assert.True(t, CanTransition(DocInvoice, StatusUnpaid, StatusOverdue))
	assert.True(t, CanTransition(DocInvoice, StatusOverdue, StatusPaid))

	// Paid is terminal.
	assert.False(t, CanTransition(DocInvoice, StatusPaid, StatusUnpaid))
	assert.False(t, CanTransition(DocInvoice, StatusPaid, StatusOverdue))
	// Overdue cannot go back to unpaid.
	assert.False(t, CanTransition(DocInvoice, StatusOverdue, StatusUnpaid))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(DocQuotation, StatusDraft))
	assert.True(t, ValidStatus(DocInvoice, StatusOverdue))

	// Invoice-only statuses are not valid on quotations.
	assert.False(t, ValidStatus(DocQuotation, StatusUnpaid))
	assert.False(t, ValidStatus(DocQuotation, StatusPaid))
	assert.False(t, ValidStatus(DocInvoice, "cancelled"))
	assert.False(t, ValidStatus(DocQuotation, ""))
}

func TestSelfTransitionRejected(t *testing.T) {
	for _, s := range []DocumentStatus{StatusDraft, StatusSent, StatusUnpaid} {
		assert.False(t, CanTransition(DocInvoice, s, s), "self transition for %s", s)
	}
}
