package rotation

import "fmt"

// Slot is a wallpaper surface.
type Slot int

// Slots
const (
	SlotHome Slot = iota
	SlotLock
)

func (s Slot) String() string {
	switch s {
	case SlotHome:
		return "home"
	case SlotLock:
		return "lock"
	default:
		return "unknown"
	}
}

// SlotTarget is the set of slots a cycle updates.
type SlotTarget int

// Slot targets
const (
	TargetHome SlotTarget = iota
	TargetLock
	TargetBoth
)

// ResolveSlotTarget maps the stored location code to a target.
// Unknown codes fall back to the home screen.
func ResolveSlotTarget(code int) SlotTarget {
	switch code {
	case 0:
		return TargetHome
	case 1:
		return TargetLock
	case 2, 3:
		return TargetBoth
	default:
		return TargetHome
	}
}

// Slots returns the slots in apply order.
func (t SlotTarget) Slots() []Slot {
	switch t {
	case TargetLock:
		return []Slot{SlotLock}
	case TargetBoth:
		return []Slot{SlotHome, SlotLock}
	default:
		return []Slot{SlotHome}
	}
}

func (t SlotTarget) String() string {
	switch t {
	case TargetHome:
		return "home"
	case TargetLock:
		return "lock"
	case TargetBoth:
		return "both"
	default:
		return "unknown"
	}
}

// MarshalText encodes the slot by name.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a slot name.
func (s *Slot) UnmarshalText(text []byte) error {
	switch string(text) {
	case "home":
		*s = SlotHome
	case "lock":
		*s = SlotLock
	default:
		return fmt.Errorf("unknown slot %q", text)
	}
	return nil
}
