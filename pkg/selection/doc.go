// Package selection implements the per-flow selection state machine of the
// revision graph viewer.
//
// A [Controller] keeps one ordered selection per flow and the id of the flow
// currently shown. It turns user gestures (clicks, context menu choices, key
// presses) into selection changes, drives the canvas highlighting through a
// [Highlighter], and reports every intent to the parent process through an
// [Emitter].
//
// The live state of a flow is the reserved snapshot [Head]. It can be run and
// snapshotted but never reverted to or deleted.
//
// # Ordering
//
// Selections keep insertion order, which is also the order of delete
// requests. Run lists are always sorted lexicographically:
//
//	c.SetCurrent("flow")
//	c.Select("flow", "s3", selection.OpSelect)
//	c.Select("flow", "s1", selection.OpSelect)
//	c.BuildRunList("single", "default") // run:single:default:s1,s3
package selection
