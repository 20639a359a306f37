package models

type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusPending  DocumentStatus = "pending"
	StatusSent     DocumentStatus = "sent"
	StatusAccepted DocumentStatus = "accepted"
	StatusRejected DocumentStatus = "rejected"
	StatusInvoiced DocumentStatus = "invoiced"

	// Invoice-only statuses.
	StatusUnpaid  DocumentStatus = "unpaid"
	StatusPaid    DocumentStatus = "paid"
	StatusOverdue DocumentStatus = "overdue"
)

// Document types for transition lookups.
const (
	DocQuotation = "quotation"
	DocInvoice   = "invoice"
)

// quotationTransitions and invoiceTransitions pin the free-form status tagging
// of the original workflow down to an explicit transition table.
var quotationTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:    {StatusPending, StatusSent, StatusRejected},
	StatusPending:  {StatusSent, StatusAccepted, StatusRejected},
	StatusSent:     {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusInvoiced},
	StatusRejected: {StatusPending},
	StatusInvoiced: {},
}

var invoiceTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:    {StatusPending, StatusSent, StatusUnpaid},
	StatusPending:  {StatusSent, StatusUnpaid, StatusRejected},
	StatusSent:     {StatusUnpaid, StatusPaid, StatusOverdue, StatusRejected},
	StatusAccepted: {StatusUnpaid, StatusPaid},
	StatusRejected: {StatusPending},
	StatusInvoiced: {},
	StatusUnpaid:   {StatusPaid, StatusOverdue},
	StatusOverdue:  {StatusPaid},
	StatusPaid:     {},
}

// ValidStatus reports whether s belongs to the document type's closed status set.
func ValidStatus(docType string, s DocumentStatus) bool {
	table := quotationTransitions
	if docType == DocInvoice {
		table = invoiceTransitions
	}
	_, ok := table[s]
	return ok
}

// CanTransition reports whether a document of docType may move from one status
// to another. Unknown statuses are never reachable.
func CanTransition(docType string, from, to DocumentStatus) bool {
	table := quotationTransitions
	if docType == DocInvoice {
		table = invoiceTransitions
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}
