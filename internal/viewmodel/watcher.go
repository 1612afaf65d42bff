package viewmodel

import (
	"github.com/ekarabulut/qrtrack/internal/bus"
)

// CustomizationWatcher re-runs refresh when a customizationUpdated event for
// its own project arrives. Matching is by id when the event carries one;
// the name+text pair is only a fallback for events from older publishers
// that did not propagate the id.
type CustomizationWatcher struct {
	b       *bus.Bus
	token   int
	id      string
	name    string
	text    string
	refresh func()
}

// WatchCustomization subscribes refresh to customization events for the
// project identified by id (and name/text for legacy events). Callers must
// Close the watcher on teardown.
func WatchCustomization(b *bus.Bus, id, name, text string, refresh func()) *CustomizationWatcher {
	w := &CustomizationWatcher{b: b, id: id, name: name, text: text, refresh: refresh}
	w.token = b.Subscribe(bus.EventCustomizationUpdated, w.handle)
	return w
}

func (w *CustomizationWatcher) handle(payload any) {
	ev, ok := payload.(bus.CustomizationUpdated)
	if !ok {
		return
	}
	if ev.ID != "" && w.id != "" {
		if ev.ID == w.id {
			w.refresh()
		}
		return
	}
	if ev.Name == w.name && ev.Text == w.text {
		w.refresh()
	}
}

// Close unsubscribes the watcher; further publishes are ignored.
func (w *CustomizationWatcher) Close() {
	w.b.Unsubscribe(bus.EventCustomizationUpdated, w.token)
}
