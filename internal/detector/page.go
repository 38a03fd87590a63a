package detector

import (
	"context"
	"watchtime/internal/classifier"
	"watchtime/internal/models"
)

type Event string

const (
	EventPlay    Event = "play"
	EventPlaying Event = "playing"
	EventPause   Event = "pause"
	EventEnded   Event = "ended"
	EventWaiting Event = "waiting"
	EventStalled Event = "stalled"
	EventEmptied Event = "emptied"
)

// Starts reports whether the event puts an element into the active set.
func (e Event) Starts() bool {
	return e == EventPlay || e == EventPlaying
}

// Stops reports whether the event removes an element from the active set.
func (e Event) Stops() bool {
	switch e {
	case EventPause, EventEnded, EventWaiting, EventStalled, EventEmptied:
		return true
	}
	return false
}

// MediaElement is one audio/video element on a page.
type MediaElement interface {
	ID() string
	Info() classifier.MediaInfo
	// Playing reports an element that is not paused, not ended and has
	// enough data buffered to advance.
	Playing() bool
}

// Page is the observation surface of a single page context.
type Page interface {
	Title() string
	URL() string
	Visibility() classifier.Visibility
	Media() []MediaElement
	Subscribe(el MediaElement, fn func(Event))
	OnMediaAdded(fn func(MediaElement))
	OnVisibilityChange(fn func(classifier.Visibility))
	OnTeardown(fn func())
}

// Sender delivers reports to the aggregation engine. An error means the
// other end is gone.
type Sender interface {
	Send(ctx context.Context, report *models.Report) error
}
