package domain

import "strings"

// DefaultTables is the managed table set in foreign-key dependency order:
// parents before children.
var DefaultTables = []string{
	"Supplier",
	"Product",
	"Inventory",
	"ProductSupplier",
	"Music",
	"Movie",
	"Customer",
	"Rentals",
	"InventoryCustomer",
	"Transactions",
	"InventoryProduct",
}

// AllowList is the ordered set of table identifiers usable in generated
// statements.
type AllowList struct {
	tables []string
}

// NewAllowList keeps the given order and drops blanks and case-insensitive
// duplicates.
func NewAllowList(tables []string) *AllowList {
	seen := make(map[string]bool, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return &AllowList{tables: out}
}

// Tables returns the tables in dependency order.
func (a *AllowList) Tables() []string {
	return append([]string(nil), a.tables...)
}

// Reversed returns the tables children-first, the order for teardown.
func (a *AllowList) Reversed() []string {
	out := make([]string, len(a.tables))
	for i, t := range a.tables {
		out[len(a.tables)-1-i] = t
	}
	return out
}

// Resolve maps free-text input to the allow-listed spelling.
func (a *AllowList) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Validationf("resolve", "", "table name is required")
	}
	for _, t := range a.tables {
		if strings.EqualFold(t, name) {
			return t, nil
		}
	}
	return "", Validationf("resolve", name, "table is not in the allow-list")
}
