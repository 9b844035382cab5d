// ABOUTME: Output behavior enumeration
// ABOUTME: Decides where a new output goes and whether the current one stops
package environment

import (
	"fmt"
	"strings"
)

// Behavior is the policy applied when an output is submitted
type Behavior int

const (
	// Queue appends to the tail; nothing is interrupted.
	Queue Behavior = iota
	// QueuePriority inserts at the head; nothing is interrupted.
	QueuePriority
	// InterruptCurrent inserts at the head and discards the playing output.
	InterruptCurrent
	// InterruptAll clears the queue, inserts at the head and discards the playing output.
	InterruptAll
	// Suspend inserts at the head and pauses the playing output, which resumes afterwards.
	Suspend
)

var behaviorNames = map[Behavior]string{
	Queue:            "queue",
	QueuePriority:    "queue_priority",
	InterruptCurrent: "interrupt_current",
	InterruptAll:     "interrupt_all",
	Suspend:          "suspend",
}

// Valid reports whether b is one of the defined behaviors
func (b Behavior) Valid() bool {
	_, ok := behaviorNames[b]
	return ok
}

// String returns the behavior name
func (b Behavior) String() string {
	if name, ok := behaviorNames[b]; ok {
		return name
	}
	return fmt.Sprintf("behavior(%d)", int(b))
}

// ParseBehavior returns the behavior with the given name (case-insensitive)
func ParseBehavior(name string) (Behavior, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for b, n := range behaviorNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBehavior, name)
}
