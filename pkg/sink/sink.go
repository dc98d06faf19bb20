// Package sink fans sample/inventory/jobs/cluster records out to one of
// three pluggable destinations: standard output, a date-partitioned
// directory tree, or a message broker.
package sink

import "time"

// ControlMessage is one inbound key/value pair read by a sink's companion
// reader (stdin for the stream sink) and forwarded to the control loop.
type ControlMessage struct {
	Key, Value string
}

// Record is one outgoing payload handed to a sink by the control loop.
type Record struct {
	Tag       string // data-tag: "sample", "sysinfo", "jobs", "cluster"
	Key       string // hostname for per-node records, a scheduler tag otherwise
	Timestamp time.Time
	Payload   []byte // the serialized envelope
	Window    time.Duration
}

// Sink queues outgoing records for delivery, to be sent within the
// configured sending window.
type Sink interface {
	// Post hands rec to the sink. The stdio and directory sinks write it
	// before returning; the broker sink queues it and delivers it
	// asynchronously.
	Post(rec Record) error
	// Stop flushes what it can within a short grace period and releases
	// any owned resources. Nobody should call Post after Stop.
	Stop()
}
