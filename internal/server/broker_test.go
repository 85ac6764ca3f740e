package server

import (
	"encoding/json"
	"testing"

	"github.com/playperu/beasthike/internal/game"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe()
	second := b.Subscribe()
	defer b.Unsubscribe(second)

	b.Publish(game.Event{Type: "attack", Phase: game.PhaseActive, Seq: 3})

	for i, ch := range []chan []byte{first, second} {
		select {
		case data := <-ch:
			var ev game.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Type != "attack" || ev.Seq != 3 {
				t.Errorf("subscriber %d got %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d got nothing", i)
		}
	}

	b.Unsubscribe(first)
	b.Publish(game.Event{Type: "tick"})
	select {
	case <-first:
		t.Fatal("unsubscribed channel still receives events")
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range cap(ch) + 5 {
		b.Publish(game.Event{Type: "tick"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered %d events, want %d", len(ch), cap(ch))
	}
}
