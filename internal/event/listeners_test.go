package event

import "testing"

func TestListeners_EmitInSubscriptionOrder(t *testing.T) {
	var l Listeners[int]
	var got []string
	l.Subscribe(func(v int) { got = append(got, "a") })
	l.Subscribe(func(v int) { got = append(got, "b") })
	l.Emit(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("order=%v want=[a b]", got)
	}
}

func TestListeners_Unsubscribe(t *testing.T) {
	var l Listeners[string]
	calls := 0
	unsub := l.Subscribe(func(string) { calls++ })
	l.Emit("x")
	unsub()
	l.Emit("y")
	unsub()

	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
	if l.Len() != 0 {
		t.Fatalf("len=%d want=0", l.Len())
	}
}

func TestListeners_SubscribeDuringEmit(t *testing.T) {
	var l Listeners[struct{}]
	late := 0
	l.Subscribe(func(struct{}) {
		l.Subscribe(func(struct{}) { late++ })
	})
	l.Emit(struct{}{})
	if late != 0 {
		t.Fatalf("late subscriber ran during the emit that added it")
	}
	l.Emit(struct{}{})
	if late != 1 {
		t.Fatalf("late=%d want=1", late)
	}
}

func TestListeners_NilSubscriberIgnored(t *testing.T) {
	var l Listeners[int]
	l.Subscribe(nil)()
	l.Emit(3)
	if l.Len() != 0 {
		t.Fatalf("len=%d want=0", l.Len())
	}
}
