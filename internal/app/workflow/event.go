package workflow

// EventType represents a workflow event type.
type EventType int

const (
	EventStateChanged  EventType = iota // Active state switched
	EventStateFault                     // A state failed and was redirected
	EventPhotoTaken                     // A photo was captured
	EventPhotoFiltered                  // A filtered copy replaced the last photo
	EventPhotoPrinted                   // A photo was handed to the printer
	EventPrintFailed                    // Printing failed, retry possible
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventStateFault:
		return "state_fault"
	case EventPhotoTaken:
		return "photo_taken"
	case EventPhotoFiltered:
		return "photo_filtered"
	case EventPhotoPrinted:
		return "photo_printed"
	case EventPrintFailed:
		return "print_failed"
	default:
		return "unknown"
	}
}

// Event represents a workflow event.
type Event struct {
	Type   EventType
	State  StateID // State the event happened in (target state for state_changed)
	Prev   StateID // Previously active state, state_changed only
	Path   string  // Photo path for photo events
	Detail string  // Filter id, error text, ...
}

// Publisher receives workflow events.
type Publisher interface {
	Publish(e Event)
}

// Localizer translates message ids into user-visible text.
type Localizer interface {
	T(id string, data map[string]any) string
}

type idLocalizer struct{}

func (idLocalizer) T(id string, _ map[string]any) string { return id }
