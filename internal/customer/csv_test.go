package customer

import (
	"bytes"
	"strings"
	"testing"

	"billmate-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVHumanLabels(t *testing.T) {
	in := strings.NewReader(
		"Customer Name,Email,Phone,Address,GSTIN\n" +
			"Acme Traders,acme@example.com,9876543210,Pune,27AAAAA0000A1Z5\n",
	)
	customers, skipped, err := ParseCSV(in, 1)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme Traders", customers[0].Name)
	assert.Equal(t, "acme@example.com", customers[0].Email)
	assert.Equal(t, uint(1), customers[0].OwnerID)
}

func TestParseCSVMachineFieldNames(t *testing.T) {
	in := strings.NewReader(
		"name,email,phone\n" +
			"Acme Traders,acme@example.com,9876543210\n",
	)
	customers, skipped, err := ParseCSV(in, 1)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, customers, 1)
}

func TestParseCSVSkipsInvalidRowsWithHeaderOffset(t *testing.T) {
	in := strings.NewReader(
		"Customer Name,Email,Phone\n" +
			"Good Customer,good@example.com,9876543210\n" + // data row 1 -> file row 2
			",missing-name@example.com,9876543210\n" + // data row 2 -> file row 3
			"Bad Email,not-an-email,9876543210\n" + // data row 3 -> file row 4
			"Bad Phone,ok@example.com,12ab\n", // data row 4 -> file row 5
	)
	customers, skipped, err := ParseCSV(in, 1)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	require.Len(t, skipped, 3)
	assert.Contains(t, skipped[0], "Row 3")
	assert.Contains(t, skipped[0], "name is required")
	assert.Contains(t, skipped[1], "Row 4")
	assert.Contains(t, skipped[1], "invalid email")
	assert.Contains(t, skipped[2], "Row 5")
	assert.Contains(t, skipped[2], "invalid phone")
}

func TestParseCSVRejectsFileWithoutNameColumn(t *testing.T) {
	in := strings.NewReader("Email,Phone\nx@example.com,9876543210\n")
	_, _, err := ParseCSV(in, 1)
	assert.Error(t, err)
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""), 1)
	assert.Error(t, err)
}

func TestWriteCSVRoundTripsThroughParse(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []models.Customer{
		{Name: "Acme Traders", Email: "acme@example.com", Phone: "9876543210", Address: "Pune", GSTIN: "27AAAAA0000A1Z5"},
	})
	require.NoError(t, err)

	customers, skipped, err := ParseCSV(&buf, 2)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme Traders", customers[0].Name)
	assert.Equal(t, uint(2), customers[0].OwnerID)
}
