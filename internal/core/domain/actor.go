package domain

import "strings"

// Screens and actions used in capability checks.
const (
	ScreenJournal     = "journal"
	ScreenPeriods     = "periods"
	ScreenFiscalYears = "fiscal_years"

	CapOverrideClosedPeriod = "override_closed_period"
	CapRemovePosted         = "remove_posted"
	CapReopenPeriod         = "reopen"
	CapTemporaryOpen        = "temporary_open"

	AnyBranch = "*"
)

// CapabilityKey identifies one (screen, branch, action) permission.
type CapabilityKey struct {
	Screen string
	Branch string
	Action string
}

// Capabilities is a flat permission lookup built once per session.
type Capabilities map[CapabilityKey]bool

// ParseCapabilities reads "screen:branch:action" strings. Malformed entries are skipped.
func ParseCapabilities(list []string) Capabilities {
	caps := make(Capabilities, len(list))
	for _, raw := range list {
		parts := strings.Split(strings.TrimSpace(raw), ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			continue
		}
		caps[CapabilityKey{Screen: parts[0], Branch: parts[1], Action: parts[2]}] = true
	}
	return caps
}

// Allows checks the exact branch first, then the wildcard branch.
func (c Capabilities) Allows(screen, branch, action string) bool {
	if c == nil {
		return false
	}
	if c[CapabilityKey{Screen: screen, Branch: branch, Action: action}] {
		return true
	}
	return c[CapabilityKey{Screen: screen, Branch: AnyBranch, Action: action}]
}

// Strings renders the map back to "screen:branch:action" form.
func (c Capabilities) Strings() []string {
	out := make([]string, 0, len(c))
	for k, allowed := range c {
		if allowed {
			out = append(out, k.Screen+":"+k.Branch+":"+k.Action)
		}
	}
	return out
}

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	UserID       string
	Branch       string
	Capabilities Capabilities
}

// Can is shorthand for Capabilities.Allows.
func (a Actor) Can(screen, branch, action string) bool {
	return a.Capabilities.Allows(screen, branch, action)
}
