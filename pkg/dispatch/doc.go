// Package dispatch routes input lines and user interface events to the
// selection controller.
//
// A [Dispatcher] is driven by exactly one goroutine. Input lines from the
// parent process and pointer, keyboard and focus events from the viewer
// arrive interleaved, but every handler runs to completion before the next
// one starts, so the controller and canvas never see concurrent access.
//
// Two drivers exist: [Loop] multiplexes a line reader with an event channel
// for headless use, and the terminal viewer calls [Dispatcher.OnLine] and
// [Dispatcher.Handle] from its Update function.
package dispatch
