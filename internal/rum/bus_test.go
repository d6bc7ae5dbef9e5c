package rum

import (
	"testing"

	"github.com/replaykit/replaykit/pkg/types"
)

func TestBusCurrentTracksLatestContext(t *testing.T) {
	bus := NewBus(4)

	if got := bus.Current(); got.IsValid() {
		t.Errorf("expected empty initial context, got %+v", got)
	}

	bus.PublishContext(types.RUMContext{ApplicationID: "app", SessionID: "s1", ViewID: "v1"})
	bus.PublishContext(types.RUMContext{ApplicationID: "app", SessionID: "s1", ViewID: "v2"})

	got := bus.Current()
	if got.ViewID != "v2" {
		t.Errorf("expected latest view v2, got %s", got.ViewID)
	}
}

func TestBusFansOutContextEvents(t *testing.T) {
	bus := NewBus(4)
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")
	defer bus.Unsubscribe("a")
	defer bus.Unsubscribe("b")

	bus.PublishContext(types.RUMContext{ApplicationID: "app", SessionID: "s1", ViewID: "v1"})

	for _, sub := range []*Subscriber{a, b} {
		select {
		case ev := <-sub.Ch:
			if ev.Type != ContextChanged || ev.Context.ViewID != "v1" {
				t.Errorf("subscriber %s got unexpected event %+v", sub.ID, ev)
			}
		default:
			t.Errorf("subscriber %s received nothing", sub.ID)
		}
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(1)
	sub := bus.Subscribe("slow")
	defer bus.Unsubscribe("slow")

	// Second publish must not block even though the buffer is full.
	bus.PublishReplayAvailable("v1")
	bus.PublishReplayAvailable("v2")

	ev := <-sub.Ch
	if ev.ViewID != "v1" {
		t.Errorf("expected first event retained, got %s", ev.ViewID)
	}
	select {
	case ev := <-sub.Ch:
		t.Errorf("expected second event dropped, got %+v", ev)
	default:
	}
}

func TestBusResubscribeClosesDisplacedChannel(t *testing.T) {
	bus := NewBus(4)
	old := bus.Subscribe("x")
	fresh := bus.Subscribe("x")
	defer bus.Unsubscribe("x")

	if _, ok := <-old.Ch; ok {
		t.Error("displaced subscription's channel must be closed")
	}

	bus.PublishReplayAvailable("v1")
	select {
	case ev := <-fresh.Ch:
		if ev.ViewID != "v1" {
			t.Errorf("fresh subscription got unexpected event %+v", ev)
		}
	default:
		t.Error("fresh subscription received nothing")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(4)
	sub := bus.Subscribe("x")
	bus.Unsubscribe("x")

	if _, ok := <-sub.Ch; ok {
		t.Error("expected closed channel after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.PublishReplayAvailable("v1")
}
