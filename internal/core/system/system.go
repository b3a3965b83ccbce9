package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: editor commands, script hooks
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: world logic
	PhasePostUpdate              // 3: spawn / destroy bookkeeping
	PhasePersist                 // 4: save-set prepare + level autosave
	PhaseCleanup                 // 5: destroy queued actors
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
