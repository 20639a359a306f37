package customer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"billmate-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// headerAliases maps accepted CSV header labels (human or machine form,
// case-insensitive) onto customer fields.
var headerAliases = map[string]string{
	"customer name": "name",
	"name":          "name",
	"email":         "email",
	"email address": "email",
	"phone":         "phone",
	"phone number":  "phone",
	"mobile":        "phone",
	"address":       "address",
	"gstin":         "gstin",
	"gst number":    "gstin",
	"notes":         "notes",
	"note":          "notes",
}

// exportHeader is the human-label form written on export; the importer accepts
// it back unchanged.
var exportHeader = []string{"Customer Name", "Email", "Phone", "Address", "GSTIN", "Notes"}

// ImportResult reports what a CSV import did. Skipped rows are described by
// their file row number: the header is row 1, so the first data row is "Row 2".
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
}

// ParseCSV reads a customer CSV and splits it into importable customers and
// per-row skip reasons. Rows failing field validation are skipped, never
// partially imported.
func ParseCSV(r io.Reader, ownerID uint) ([]models.Customer, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are reported per row, not fatal

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("header could not be read: %w", err)
	}

	cols := make(map[int]string, len(header))
	for i, label := range header {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
			cols[i] = field
		}
	}
	if !hasField(cols, "name") {
		return nil, nil, fmt.Errorf("no name column found (accepted: \"Customer Name\" or \"name\")")
	}

	var (
		customers []models.Customer
		skipped   []string
		dataRow   int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		dataRow++
		fileRow := dataRow + 1 // offset by the header row
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("Row %d: %v", fileRow, err))
			continue
		}

		cust := models.Customer{OwnerID: ownerID}
		for i, value := range record {
			value = strings.TrimSpace(value)
			switch cols[i] {
			case "name":
				cust.Name = value
			case "email":
				cust.Email = value
			case "phone":
				cust.Phone = value
			case "address":
				cust.Address = value
			case "gstin":
				cust.GSTIN = value
			case "notes":
				cust.Notes = value
			}
		}

		if err := validate.Struct(&cust); err != nil {
			skipped = append(skipped, fmt.Sprintf("Row %d: %s", fileRow, validationMessage(err)))
			continue
		}
		customers = append(customers, cust)
	}

	return customers, skipped, nil
}

// WriteCSV renders customers back into the export format.
func WriteCSV(w io.Writer, customers []models.Customer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range customers {
		if err := writer.Write([]string{c.Name, c.Email, c.Phone, c.Address, c.GSTIN, c.Notes}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func hasField(cols map[int]string, field string) bool {
	for _, f := range cols {
		if f == field {
			return true
		}
	}
	return false
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	ve := verrs[0]
	switch ve.Field() {
	case "Name":
		if ve.Tag() == "required" {
			return "name is required"
		}
		return "name is too long"
	case "Email":
		return "invalid email address"
	case "Phone":
		return "invalid phone number"
	default:
		return fmt.Sprintf("invalid %s", strings.ToLower(ve.Field()))
	}
}
