// Package queue defines the counter change events exchanged over the message
// broker and the consumer that turns them into an audit log.
package queue

// CounterChangedQueue is the durable queue carrying CounterChangedEvent.
const CounterChangedQueue = "counter.changed"

// Actions carried by CounterChangedEvent.
const (
	ActionIncrement = "increment"
	ActionReset     = "reset"
)

// CounterChangedEvent is published after the stored counter changes. Count is
// the value Redis reported right after the change.
type CounterChangedEvent struct {
	EventID    string `json:"event_id"`
	Action     string `json:"action"`
	Count      int64  `json:"count"`
	OccurredAt string `json:"occurred_at"`
}
