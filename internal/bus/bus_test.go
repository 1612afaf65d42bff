package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := New()
	var got []string

	b.Subscribe("ev", func(any) { got = append(got, "first") })
	b.Subscribe("ev", func(any) { got = append(got, "second") })
	b.Subscribe("ev", func(any) { got = append(got, "third") })

	b.Publish("ev", nil)

	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestPublishCarriesPayload(t *testing.T) {
	b := New()
	var got CustomizationUpdated

	b.Subscribe(EventCustomizationUpdated, func(p any) {
		got = p.(CustomizationUpdated)
	})
	b.Publish(EventCustomizationUpdated, CustomizationUpdated{ID: "p1", Name: "N", Text: "T"})

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "N", got.Name)
	assert.Equal(t, "T", got.Text)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0

	tok := b.Subscribe("ev", func(any) { calls++ })
	b.Publish("ev", nil)
	b.Unsubscribe("ev", tok)
	b.Publish("ev", nil)

	assert.Equal(t, 1, calls)
	assert.Zero(t, b.SubscriberCount("ev"))
}

func TestLateSubscriberMissesEarlierPublish(t *testing.T) {
	b := New()
	b.Publish("ev", nil)

	calls := 0
	b.Subscribe("ev", func(any) { calls++ })

	assert.Zero(t, calls)
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := New()
	var got []string

	b.Subscribe("ev", func(any) { got = append(got, "before") })
	b.Subscribe("ev", func(any) { panic("boom") })
	b.Subscribe("ev", func(any) { got = append(got, "after") })

	assert.NotPanics(t, func() { b.Publish("ev", nil) })
	assert.Equal(t, []string{"before", "after"}, got)
}

func TestUnsubscribeUnknownTokenIsNoop(t *testing.T) {
	b := New()
	b.Subscribe("ev", func(any) {})

	b.Unsubscribe("ev", 999)
	b.Unsubscribe("other", 1)

	assert.Equal(t, 1, b.SubscriberCount("ev"))
}
