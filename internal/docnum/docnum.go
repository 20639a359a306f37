// Package docnum assigns invoice and quotation numbers: a prefix plus a
// zero-padded counter, assigned at creation and never reassigned.
package docnum

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Prefixes per document table.
const (
	InvoicePrefix   = "INV-"
	QuotationPrefix = "QT-"
)

var ErrSequenceMissing = errors.New("document sequence row missing")

// Format renders a document number with at least three counter digits.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// Next produces the next number for a document table. In strict mode the
// counter is a single-row atomic UPDATE..RETURNING, safe under concurrent
// creation. In legacy mode it is the table's current row count plus one — the
// original scheme, kept selectable because it is what existing books were
// numbered with, even though concurrent creators can draw duplicates from it.
//
// Pass the transaction handle that creates the document so a rollback also
// returns the drawn number.
func Next(tx *gorm.DB, strict bool, table string, model interface{}, prefix string) (string, error) {
	var n int64
	if strict {
		err := tx.Raw(
			"UPDATE document_sequences SET value = value + 1 WHERE name = ? RETURNING value",
			table,
		).Scan(&n).Error
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", ErrSequenceMissing
		}
	} else {
		if err := tx.Model(model).Count(&n).Error; err != nil {
			return "", err
		}
		n++
	}
	return Format(prefix, n), nil
}
