package selection

import "slices"

// Run modes offered by the context menu.
const (
	ModeSingle     = "single"
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// ActionKind is a context menu entry type.
type ActionKind int

const (
	ActionSnapshot ActionKind = iota
	ActionRevert
	ActionDelete
	ActionRun
)

func (k ActionKind) String() string {
	switch k {
	case ActionSnapshot:
		return "snapshot"
	case ActionRevert:
		return "revert"
	case ActionDelete:
		return "delete"
	case ActionRun:
		return "run"
	}
	return "unknown"
}

// Action is one entry of a context menu.
type Action struct {
	Kind ActionKind
	// Mode is the run mode for ActionRun entries.
	Mode string
}

// Label is the human-readable menu text.
func (a Action) Label() string {
	switch a.Kind {
	case ActionSnapshot:
		return "Take snapshot"
	case ActionRevert:
		return "Revert"
	case ActionDelete:
		return "Delete"
	case ActionRun:
		switch a.Mode {
		case ModeSequential:
			return "Run sequentially"
		case ModeParallel:
			return "Run in parallel"
		}
		return "Run"
	}
	return a.Kind.String()
}

// Menu is the set of actions available for a right-clicked node.
type Menu struct {
	Flow    string
	Target  SnapshotID
	Actions []Action
	// involved holds the ids the menu acts on: the selection, or the target
	// alone when nothing is selected.
	involved []SnapshotID
}

// Offers reports whether a is one of the menu's actions.
func (m Menu) Offers(a Action) bool {
	return slices.Contains(m.Actions, a)
}

// Involved returns the ids the menu acts on.
func (m Menu) Involved() []SnapshotID {
	return slices.Clone(m.involved)
}

func runActions(n int) []Action {
	if n > 1 {
		return []Action{
			{Kind: ActionRun, Mode: ModeSequential},
			{Kind: ActionRun, Mode: ModeParallel},
		}
	}
	return []Action{{Kind: ActionRun, Mode: ModeSingle}}
}

// menuFor computes the actions for target given the ids involved.
func menuFor(flow string, target SnapshotID, involved []SnapshotID) Menu {
	m := Menu{Flow: flow, Target: target, involved: involved}

	switch {
	case target.IsHead() && onlyHead(involved):
		m.Actions = []Action{{Kind: ActionSnapshot}}
	case containsHead(involved):
		m.Actions = runActions(len(involved))
	default:
		if len(involved) == 1 {
			m.Actions = append(m.Actions, Action{Kind: ActionRevert})
		}
		m.Actions = append(m.Actions, Action{Kind: ActionDelete})
		m.Actions = append(m.Actions, runActions(len(involved))...)
	}
	return m
}
