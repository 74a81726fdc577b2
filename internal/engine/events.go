package engine

import "fmt"

// EventKind classifies status events emitted by the view.
type EventKind int

const (
	EventMovementStarted EventKind = iota
	EventMovementCompleted
	EventFinished
	EventCancelled
	EventRejected
	EventFrameLost
	EventFrameRestored
)

func (k EventKind) String() string {
	switch k {
	case EventMovementStarted:
		return "movement-started"
	case EventMovementCompleted:
		return "movement-completed"
	case EventFinished:
		return "finished"
	case EventCancelled:
		return "cancelled"
	case EventRejected:
		return "rejected"
	case EventFrameLost:
		return "frame-lost"
	case EventFrameRestored:
		return "frame-restored"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a status notification. Err is set for rejected requests.
type Event struct {
	Kind EventKind
	Tick uint64
	// Remaining is the number of queued goals after the event.
	Remaining int
	Err       error
}

// Observer receives events synchronously on the tick goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
