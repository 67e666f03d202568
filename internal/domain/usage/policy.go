package usage

import "time"

// AnonymousRemaining is the sentinel returned when no identifier exists and
// the limiter fails open.
const AnonymousRemaining = 999

// Policy is a per-action trailing-window quota.
type Policy struct {
	Max    int
	Window time.Duration
}

// PolicyTable resolves an action to its policy, falling back to a default
// for unknown actions. It is immutable after construction.
type PolicyTable struct {
	policies map[string]Policy
	fallback Policy
}

// NewPolicyTable builds a table from an explicit policy map and fallback.
func NewPolicyTable(policies map[string]Policy, fallback Policy) PolicyTable {
	copied := make(map[string]Policy, len(policies))
	for action, p := range policies {
		copied[action] = p
	}
	return PolicyTable{policies: copied, fallback: fallback}
}

// DefaultPolicyTable returns the product's standard action quotas.
func DefaultPolicyTable() PolicyTable {
	return NewPolicyTable(map[string]Policy{
		"quest":             {Max: 10, Window: time.Hour},
		"battle":            {Max: 20, Window: time.Hour},
		"deck_create":       {Max: 5, Window: time.Hour},
		"pack_open":         {Max: 3, Window: 24 * time.Hour},
		"ai_recommendation": {Max: 5, Window: time.Hour},
	}, Policy{Max: 100, Window: time.Hour})
}

// Lookup returns the policy for an action, or the fallback when unknown.
func (t PolicyTable) Lookup(action string) Policy {
	if p, ok := t.policies[action]; ok {
		return p
	}
	return t.fallback
}
