package domain

import "time"

// RepositoryRef identifies one repository under attribution. Values come
// from the manifest and are never mutated.
type RepositoryRef struct {
	// Name is the short mirror/display name, e.g. "server".
	Name string
	// CanonicalID is the clone URL or the owner/name pair for API access.
	CanonicalID string
	// DefaultBranch is the branch satellite windows are mapped onto.
	DefaultBranch string
}

// Range is a half-open revision range lower..upper within a single
// repository: the commits reachable from Upper but not from Lower.
// An empty Lower means "from the beginning of history".
type Range struct {
	Lower string
	Upper string
}

// FromStart reports whether the range covers all history up to Upper.
func (r Range) FromStart() bool {
	return r.Lower == ""
}

// Window is the primary project's resolved attribution window: the two
// boundary points and their commit timestamps. LowerRef is empty when the
// window opens at the beginning of history.
type Window struct {
	LowerRef  string
	UpperRef  string
	LowerTime time.Time
	UpperTime time.Time
}
