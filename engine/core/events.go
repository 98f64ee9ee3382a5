package core

import "sync"

// EventContext carries the payload of a fired event.
type EventContext struct {
	Width  uint32
	Height uint32
	Path   string
	Data   interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * width = ctx.Width; height = ctx.Height
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// The graphics context is about to be invalidated. Listeners must back up
	// render target contents before returning.
	EVENT_CODE_DEVICE_LOST SystemEventCode = 0x03

	// The graphics context was recreated; resources can be recovered.
	EVENT_CODE_DEVICE_RESTORED SystemEventCode = 0x04

	// A watched asset file changed on disk.
	/* Context usage:
	 * path = ctx.Path
	 */
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x05

	// The platform window gained or lost focus.
	EVENT_CODE_FOCUS_CHANGED SystemEventCode = 0x06

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events synchronously on the calling goroutine.
type EventSystem struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

// Register listens for events with the given code. A listener can only be
// registered once per code; duplicates return false.
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()
	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], registeredEvent{listener: listener, callback: onEvent})
	return true
}

// Unregister stops the listener from receiving events with the given code.
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to the listeners of code, in registration order. If a
// handler returns true the event is considered handled and propagation stops.
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mutex.RLock()
	events := append([]registeredEvent(nil), es.registered[code]...)
	es.mutex.RUnlock()
	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	es.mutex.Lock()
	es.registered = make(map[SystemEventCode][]registeredEvent)
	es.mutex.Unlock()
}
