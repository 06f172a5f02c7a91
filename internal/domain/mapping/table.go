package mapping

import (
	"encoding/json"
	"strings"
)

// Row is a single line of the uploaded mapping sheet after parsing.
type Row struct {
	SKU       string
	Warehouse string
	Location  string
}

// LocationEntry tells the fulfillment system where a SKU lives inside
// one warehouse.
type LocationEntry struct {
	Warehouse string `json:"warehouse"`
	Location  string `json:"location"`
}

// SKUEntry holds the per-warehouse placements of a single SKU, keyed by
// the warehouse name exactly as it appeared in the sheet.
type SKUEntry map[string]LocationEntry

// Entry returns the placement for the given warehouse name.
func (e SKUEntry) Entry(warehouseName string) (LocationEntry, bool) {
	entry, ok := e[warehouseName]
	return entry, ok
}

// Table is the SKU to warehouse placement lookup built from an upload.
// SKUs are case-insensitive; warehouse names are not.
type Table struct {
	entries map[string]SKUEntry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]SKUEntry)}
}

// BuildTable folds rows into a table. When the same SKU and warehouse
// pair appears more than once, the first row wins and later rows are
// dropped.
func BuildTable(rows []Row) *Table {
	t := NewTable()
	for _, row := range rows {
		t.Add(row)
	}
	return t
}

// NormalizeSKU canonicalizes a SKU for storage and lookup.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// Add inserts a row. It returns false when an entry for the same SKU
// and warehouse already exists, in which case the table is unchanged.
func (t *Table) Add(row Row) bool {
	sku := NormalizeSKU(row.SKU)
	if sku == "" {
		return false
	}
	entry, ok := t.entries[sku]
	if !ok {
		entry = make(SKUEntry)
		t.entries[sku] = entry
	}
	if _, exists := entry[row.Warehouse]; exists {
		return false
	}
	entry[row.Warehouse] = LocationEntry{
		Warehouse: row.Warehouse,
		Location:  row.Location,
	}
	return true
}

// LookupSKU returns all warehouse placements for a SKU.
func (t *Table) LookupSKU(sku string) (SKUEntry, bool) {
	entry, ok := t.entries[NormalizeSKU(sku)]
	return entry, ok
}

// SKUCount returns the number of distinct SKUs in the table.
func (t *Table) SKUCount() int {
	return len(t.entries)
}

// MarshalJSON encodes the table as a plain nested object so other
// consumers of the stored blob do not need to know about this type.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.entries)
}

// UnmarshalJSON decodes the nested object form produced by MarshalJSON.
// SKU keys are re-normalized so lookups stay case-insensitive even if
// the stored blob was written by an older producer.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw map[string]SKUEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.entries = make(map[string]SKUEntry, len(raw))
	for sku, entry := range raw {
		key := NormalizeSKU(sku)
		if key == "" {
			continue
		}
		if existing, ok := t.entries[key]; ok {
			for name, loc := range entry {
				if _, dup := existing[name]; !dup {
					existing[name] = loc
				}
			}
			continue
		}
		t.entries[key] = entry
	}
	return nil
}
