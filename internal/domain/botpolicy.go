package domain

import "strings"

// BotPolicy decides whether a contributor display name belongs to an
// automation account. Matching commits are diverted to the excluded
// counter instead of the tally.
type BotPolicy struct {
	Suffixes []string
	Names    []string
}

// DefaultBotPolicy matches GitHub's "[bot]" suffix convention plus the
// translation service account, which commits without the suffix.
func DefaultBotPolicy() BotPolicy {
	return BotPolicy{
		Suffixes: []string{"[bot]"},
		Names:    []string{"Hosted Weblate"},
	}
}

// WithExtraNames returns a copy of the policy that also matches the given
// literal names.
func (p BotPolicy) WithExtraNames(names ...string) BotPolicy {
	out := BotPolicy{
		Suffixes: p.Suffixes,
		Names:    append(append([]string{}, p.Names...), names...),
	}
	return out
}

// Matches reports whether name is an automation account.
func (p BotPolicy) Matches(name string) bool {
	for _, suffix := range p.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, known := range p.Names {
		if name == known {
			return true
		}
	}
	return false
}
