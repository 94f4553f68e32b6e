// Package audit implements the asynchronous audit pipeline: an event model,
// pluggable sinks, and a buffered dispatcher with drop accounting. The root
// package re-exports the event and sink types; nothing here touches Redis.
package audit
