// Package protocol implements the line-oriented protocol between the graph
// viewer and its parent process.
//
// # Input
//
// The parent writes one command per line. Fields are separated by a single
// control character ([DefaultDelimiter], a backspace) and trailing whitespace
// is stripped from the final field:
//
//	draw<BS>flowA<BS>yes<BS>digraph { head; r1 -> head; }
//	run<BS>single<BS>default
//	delete<BS>r1
//	unselect-all
//
// [Parser.Parse] turns a line into one of [Draw], [Run], [Delete] or
// [UnselectAll].
//
// # Output
//
// The viewer reports user intents as colon-delimited [Message] values, one per
// line:
//
//	select:
//	unselect:
//	delete:r1,r2
//	revert:r1
//	snapshot
//	run:single:default:r1,r2
//	focus-in:
//	focus-out:
//
// An [Emitter] writes messages to the output stream and mirrors them to
// optional [Sink] values such as [RedisSink].
package protocol
