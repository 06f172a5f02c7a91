package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skubridge/backend/internal/domain/mapping"
)

func TestParseMappingRows(t *testing.T) {
	t.Run("Valid sheet", func(t *testing.T) {
		csv := "sku,warehouse,location\nABC,Jeddah Club,A-01\nXYZ,Riyadh Club,B-07"

		rows, stats, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalRows)
		assert.Equal(t, 0, stats.DroppedRows)
		assert.Equal(t, []mapping.Row{
			{SKU: "ABC", Warehouse: "Jeddah Club", Location: "A-01"},
			{SKU: "XYZ", Warehouse: "Riyadh Club", Location: "B-07"},
		}, rows)
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		// UTF-8 BOM: 0xEF, 0xBB, 0xBF
		csv := "\xEF\xBB\xBFsku,warehouse,location\nABC,Jeddah Club,A-01"

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "ABC", rows[0].SKU)
	})

	t.Run("Header match is case-insensitive", func(t *testing.T) {
		csv := "SKU,Warehouse,LOCATION\nABC,Jeddah Club,A-01"

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("Column order is free and extras are ignored", func(t *testing.T) {
		csv := "location,notes,warehouse,sku\nA-01,whatever,Jeddah Club,ABC"

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, mapping.Row{SKU: "ABC", Warehouse: "Jeddah Club", Location: "A-01"}, rows[0])
	})

	t.Run("CRLF line endings", func(t *testing.T) {
		csv := "sku,warehouse,location\r\nABC,Jeddah Club,A-01\r\n"

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "A-01", rows[0].Location)
	})

	t.Run("Cells are trimmed", func(t *testing.T) {
		csv := "sku , warehouse , location\n  ABC , Jeddah Club ,  A-01  "

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, mapping.Row{SKU: "ABC", Warehouse: "Jeddah Club", Location: "A-01"}, rows[0])
	})

	t.Run("Rows with empty cells are dropped silently", func(t *testing.T) {
		csv := "sku,warehouse,location\n" +
			"ABC,Jeddah Club,A-01\n" +
			",Jeddah Club,A-02\n" +
			"DEF,,A-03\n" +
			"GHI,Riyadh Club,\n" +
			"JKL\n" +
			"XYZ,Dammam Club,D-09"

		rows, stats, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 6, stats.TotalRows)
		assert.Equal(t, 4, stats.DroppedRows)
		require.Len(t, rows, 2)
		assert.Equal(t, "ABC", rows[0].SKU)
		assert.Equal(t, "XYZ", rows[1].SKU)
	})

	t.Run("Blank lines are skipped", func(t *testing.T) {
		csv := "sku,warehouse,location\n\n   \nABC,Jeddah Club,A-01\n\n"

		rows, stats, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalRows)
		assert.Len(t, rows, 1)
	})

	t.Run("No quoting support", func(t *testing.T) {
		// Quoted fields are split on the embedded comma like any other.
		csv := "sku,warehouse,location\n\"ABC,1\",Jeddah Club,A-01"

		rows, _, err := ParseMappingRows([]byte(csv))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, `"ABC`, rows[0].SKU)
		assert.Equal(t, `1"`, rows[0].Warehouse)
		assert.Equal(t, "Jeddah Club", rows[0].Location)
	})

	t.Run("Empty input", func(t *testing.T) {
		_, _, err := ParseMappingRows(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)

		_, _, err = ParseMappingRows([]byte("  \n \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Missing column is reported by name", func(t *testing.T) {
		_, _, err := ParseMappingRows([]byte("sku,warehouse\nABC,Jeddah Club"))

		var missing *MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "location", missing.Column)
		assert.Contains(t, err.Error(), "location")
	})

	t.Run("Fuzzy header names do not match", func(t *testing.T) {
		_, _, err := ParseMappingRows([]byte("sku_code,warehouse,location\nABC,Jeddah Club,A-01"))

		var missing *MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "sku", missing.Column)
	})
}
