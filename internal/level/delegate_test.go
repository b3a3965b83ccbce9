package level

import "testing"

func TestDelegateBindIsIdempotent(t *testing.T) {
	var d Delegate
	owner := new(int)
	calls := 0
	fn := func(*Actor) { calls++ }

	if !d.Bind(owner, fn) {
		t.Fatalf("first Bind returned false")
	}
	if d.Bind(owner, fn) {
		t.Fatalf("second Bind from the same owner returned true")
	}
	if d.Bind(nil, fn) || d.Bind(new(int), nil) {
		t.Fatalf("Bind accepted a nil owner or handler")
	}
	d.broadcast(nil)
	if calls != 1 || d.Len() != 1 {
		t.Fatalf("calls=%d len=%d", calls, d.Len())
	}
}

func TestDelegateUnbindDuringBroadcast(t *testing.T) {
	var d Delegate
	first, second := new(int), new(int)
	var order []string

	d.Bind(first, func(*Actor) {
		order = append(order, "first")
		d.RemoveAll(first)
		d.RemoveAll(second)
	})
	d.Bind(second, func(*Actor) { order = append(order, "second") })

	d.broadcast(nil)
	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("order = %v, want [first]", order)
	}
	if d.Len() != 0 {
		t.Fatalf("len = %d after unbinding both", d.Len())
	}
	if d.RemoveAll(first) != 0 {
		t.Fatalf("RemoveAll on an unbound owner removed something")
	}
}
