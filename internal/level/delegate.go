package level

type binding struct {
	owner any
	fn    func(*Actor)
}

// Delegate is a per-actor subscriber list keyed by owner. An owner holds at
// most one binding, so repeated Bind calls from the same owner are no-ops.
type Delegate struct {
	bindings []binding
}

// Bind registers fn for owner. It reports false when owner was already bound.
func (d *Delegate) Bind(owner any, fn func(*Actor)) bool {
	if owner == nil || fn == nil {
		return false
	}
	if d.IsBound(owner) {
		return false
	}
	d.bindings = append(d.bindings, binding{owner: owner, fn: fn})
	return true
}

func (d *Delegate) IsBound(owner any) bool {
	for _, b := range d.bindings {
		if b.owner == owner {
			return true
		}
	}
	return false
}

// RemoveAll drops every binding held by owner and returns how many went.
func (d *Delegate) RemoveAll(owner any) int {
	kept := d.bindings[:0]
	removed := 0
	for _, b := range d.bindings {
		if b.owner == owner {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(d.bindings); i++ {
		d.bindings[i] = binding{}
	}
	d.bindings = kept
	return removed
}

func (d *Delegate) Len() int { return len(d.bindings) }

// broadcast works on a snapshot because handlers usually unbind themselves.
func (d *Delegate) broadcast(a *Actor) {
	if len(d.bindings) == 0 {
		return
	}
	snapshot := append([]binding(nil), d.bindings...)
	for _, b := range snapshot {
		if !d.IsBound(b.owner) {
			continue
		}
		b.fn(a)
	}
}
