package realtime

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestSubscribeWholeTable(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TablePCs, "", 4)
	defer cancel()

	hub.Publish(Event{Table: TablePCs, Action: ActionUpsert, Key: "pc-1"})
	if evt := recvOne(t, ch); evt.Key != "pc-1" {
		t.Fatalf("key = %q", evt.Key)
	}
	hub.Publish(Event{Table: TableSessions, Action: ActionUpsert, Key: "s-1"})
	select {
	case evt := <-ch:
		t.Fatalf("unexpected cross-table delivery: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeSingleKey(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TableDeviceTokens, "tok-a", 4)
	defer cancel()

	hub.Publish(Event{Table: TableDeviceTokens, Action: ActionUpsert, Key: "tok-b"})
	hub.Publish(Event{Table: TableDeviceTokens, Action: ActionUpsert, Key: "tok-a"})
	if evt := recvOne(t, ch); evt.Key != "tok-a" {
		t.Fatalf("key = %q, want tok-a", evt.Key)
	}
}

func TestDuplicateEventsAreDelivered(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TableSessions, "s-1", 4)
	defer cancel()

	evt := Event{Table: TableSessions, Action: ActionUpsert, Key: "s-1"}
	hub.Publish(evt)
	hub.Publish(evt)
	recvOne(t, ch)
	recvOne(t, ch)
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TablePCs, "", 4)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}
	// Publishing after cancel must not panic or deliver.
	hub.Publish(Event{Table: TablePCs, Action: ActionUpsert, Key: "pc-1"})
	cancel()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TablePCs, "", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Table: TablePCs, Action: ActionUpsert, Key: "pc-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	recvOne(t, ch)
}
