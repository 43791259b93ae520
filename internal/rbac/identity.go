package rbac

import "fmt"

// Identity is the permission model attached to a user. It is either
// ModernPermissions or LegacyRole and is resolved once when the user is loaded.
type Identity interface {
	Capabilities() CapabilitySet
	denial(c Capability) string
}

// ModernPermissions carries per-flag grants. Missing flags are denied.
type ModernPermissions struct {
	Flags map[Capability]bool
}

// Capabilities returns the flags set to true.
func (m ModernPermissions) Capabilities() CapabilitySet {
	set := make(CapabilitySet, len(m.Flags))
	for c, on := range m.Flags {
		if on {
			set[c] = struct{}{}
		}
	}
	return set
}

func (m ModernPermissions) denial(c Capability) string {
	return fmt.Sprintf("Permission required: %s", c)
}

// LegacyRole grants capabilities through a fixed role table.
type LegacyRole struct {
	Role string
}

var roleCapabilities = map[string][]Capability{
	"admin": {
		Sales, Purchase, CreateProduct, DeleteProduct, SalesLedger, PurchaseLedger,
		StockLedger, ProfitLoss, OpeningStock, UserManagement,
	},
	"manager":  {Sales, Purchase, SalesLedger, PurchaseLedger, StockLedger, OpeningStock},
	"employee": {Sales, Purchase},
}

// Capabilities looks the role up in the role table; unknown roles get nothing.
func (l LegacyRole) Capabilities() CapabilitySet {
	return NewCapabilitySet(roleCapabilities[l.Role]...)
}

func (l LegacyRole) denial(c Capability) string {
	return fmt.Sprintf("Authentication required for %s", c)
}

// FlagColumns is the nullable flag row shape stored per user. A nil Sales
// flag marks a legacy user.
type FlagColumns map[Capability]*bool

// ResolveIdentity picks the permission model for a stored user.
func ResolveIdentity(flags FlagColumns, role string) Identity {
	if flags[Sales] == nil {
		return LegacyRole{Role: role}
	}
	granted := make(map[Capability]bool, len(All))
	for _, c := range All {
		if v := flags[c]; v != nil {
			granted[c] = *v
		}
	}
	return ModernPermissions{Flags: granted}
}
