package app

// EventType identifies session events.
type EventType int

const (
	EventPhotoLoaded EventType = iota
	EventMaskChanged
	EventCleanupStarted
	EventCleanupFinished
	EventPlacementChanged
	EventRenderStarted
	EventRenderFinished
	EventClosed
)

// EventListener is called when an event occurs. Listeners run on the
// goroutine that triggered the event, outside the session lock.
type EventListener func(data interface{})

// CleanupOutcome is the payload of EventCleanupFinished.
type CleanupOutcome struct {
	Err      error
	Restored bool
}

// RenderOutcome is the payload of EventRenderFinished.
type RenderOutcome struct {
	ImageURL string
	Err      error
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.lmu.RLock()
	listeners := s.listeners[event]
	s.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
