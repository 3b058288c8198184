package sse

import (
	"testing"
	"time"
)

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	sub := &subscriber{send: make(chan []byte, 2)}

	sub.enqueue([]byte("one"))
	sub.enqueue([]byte("two"))
	sub.enqueue([]byte("three"))

	got := []string{string(<-sub.send), string(<-sub.send)}
	if got[0] != "two" || got[1] != "three" {
		t.Fatalf("expected oldest frame dropped, got %v", got)
	}
}

func TestRegistryCollectDeduplicates(t *testing.T) {
	reg := newRegistry()
	sub := &subscriber{id: "a", topics: []string{"queue:1", "session:1"}}
	reg.add(sub)

	subs := reg.collect([]string{"queue:1", "session:1"})
	if len(subs) != 1 {
		t.Fatalf("collect returned %d subscribers, want 1", len(subs))
	}
}

func TestRegistryRemoveClearsEmptyTopics(t *testing.T) {
	reg := newRegistry()
	reg.add(&subscriber{id: "a", topics: []string{"queue:1"}})
	reg.add(&subscriber{id: "b", topics: []string{"queue:1"}})

	if _, ok := reg.remove("a"); !ok {
		t.Fatal("remove should report presence")
	}
	if len(reg.byTopic["queue:1"]) != 1 {
		t.Fatalf("topic set size = %d, want 1", len(reg.byTopic["queue:1"]))
	}
	reg.remove("b")
	if _, ok := reg.byTopic["queue:1"]; ok {
		t.Fatal("empty topic should be deleted")
	}
	if _, ok := reg.remove("a"); ok {
		t.Fatal("second remove should report absence")
	}
}

func TestIdleSinceTracksTouch(t *testing.T) {
	sub := &subscriber{}
	base := time.Now()
	sub.touch(base)
	if idle := sub.idleSince(base.Add(5 * time.Second)); idle != 5*time.Second {
		t.Fatalf("idleSince = %v, want 5s", idle)
	}
}
