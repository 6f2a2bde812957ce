package selection

import "slices"

// Kind distinguishes the live head state from committed revisions.
type Kind int

const (
	// KindRevision is a committed snapshot of a flow.
	KindRevision Kind = iota
	// KindHead is the live, uncommitted state of a flow.
	KindHead
)

// headID is the wire form of the head snapshot.
const headID = "head"

// SnapshotID identifies a snapshot within a flow.
type SnapshotID string

// Head is the reserved id of the live state.
const Head SnapshotID = headID

// Kind reports whether id names head or a committed revision.
func (id SnapshotID) Kind() Kind {
	if id == Head {
		return KindHead
	}
	return KindRevision
}

// IsHead reports whether id is the head sentinel.
func (id SnapshotID) IsHead() bool { return id.Kind() == KindHead }

func (id SnapshotID) String() string { return string(id) }

func containsHead(ids []SnapshotID) bool {
	return slices.ContainsFunc(ids, SnapshotID.IsHead)
}

func onlyHead(ids []SnapshotID) bool {
	return len(ids) > 0 && !slices.ContainsFunc(ids, func(id SnapshotID) bool { return !id.IsHead() })
}

func toStrings(ids []SnapshotID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
