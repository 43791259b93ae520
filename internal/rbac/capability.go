// Package rbac decides whether a user may exercise a capability.
package rbac

import "strings"

// Capability names one of the independently grantable permission flags.
type Capability string

const (
	Sales          Capability = "sales"
	Purchase       Capability = "purchase"
	CreateProduct  Capability = "create_product"
	DeleteProduct  Capability = "delete_product"
	CreateCategory Capability = "create_category"
	DeleteCategory Capability = "delete_category"
	SalesLedger    Capability = "sales_ledger"
	PurchaseLedger Capability = "purchase_ledger"
	StockLedger    Capability = "stock_ledger"
	ProfitLoss     Capability = "profit_loss"
	OpeningStock   Capability = "opening_stock"
	UserManagement Capability = "user_management"
)

// All lists every capability in display order.
var All = []Capability{
	Sales, Purchase, CreateProduct, DeleteProduct, CreateCategory, DeleteCategory,
	SalesLedger, PurchaseLedger, StockLedger, ProfitLoss, OpeningStock, UserManagement,
}

// ParseCapability maps a flag name to its Capability.
func ParseCapability(raw string) (Capability, bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	for _, c := range All {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// CapabilitySet is an unordered set of granted capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from caps.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether c is granted.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns granted capabilities in display order.
func (s CapabilitySet) List() []string {
	out := make([]string, 0, len(s))
	for _, c := range All {
		if s.Has(c) {
			out = append(out, string(c))
		}
	}
	return out
}

// Features renders the set as a flag name to boolean map.
func (s CapabilitySet) Features() map[string]bool {
	out := make(map[string]bool, len(All))
	for _, c := range All {
		out[string(c)] = s.Has(c)
	}
	return out
}
