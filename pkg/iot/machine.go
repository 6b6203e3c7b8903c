package iot

import (
	"sync"

	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

type MachineState string

const (
	StateClear    MachineState = "clear"
	StateOpenWarn MachineState = "open_warn"
	StateOpenCrit MachineState = "open_crit"
)

func stateFor(v Verdict) MachineState {
	switch v {
	case VerdictCrit:
		return StateOpenCrit
	case VerdictWarn:
		return StateOpenWarn
	default:
		return StateClear
	}
}

func stateForKind(k models.AlertKind) MachineState {
	if k == models.AlertKindCritical {
		return StateOpenCrit
	}
	return StateOpenWarn
}

func (s MachineState) alertKind() models.AlertKind {
	if s == StateOpenCrit {
		return models.AlertKindCritical
	}
	return models.AlertKindWarning
}

// decide applies the transition table for one (sensor, metric). changed is
// false for the self-loops, which only refresh last_seen_value.
func decide(from MachineState, v Verdict) (to MachineState, transition models.Transition, changed bool) {
	to = stateFor(v)
	if to == from {
		return from, "", false
	}
	switch {
	case from == StateClear:
		return to, models.TransitionOpen, true
	case to == StateClear:
		return to, models.TransitionResolve, true
	case to == StateOpenCrit:
		return to, models.TransitionEscalate, true
	default:
		return to, models.TransitionDeescalate, true
	}
}

// MachineSnapshot is the machine's view of one (sensor, metric).
type MachineSnapshot struct {
	State    MachineState `json:"state"`
	AlertID  string       `json:"alert_id,omitempty"`
	LastSeen float64      `json:"last_seen_value"`
	dirty    bool
}

type machineKey struct {
	sensorID string
	metric   models.Metric
}

// alertMachine holds snapshots by value so readers never see a half-written
// entry. Writers for one sensor are serialised by the sensor lock.
type alertMachine struct {
	entries sync.Map
}

func newAlertMachine() *alertMachine {
	return &alertMachine{}
}

func (m *alertMachine) get(key machineKey) MachineSnapshot {
	if v, ok := m.entries.Load(key); ok {
		return v.(MachineSnapshot)
	}
	return MachineSnapshot{State: StateClear}
}

func (m *alertMachine) set(key machineKey, s MachineSnapshot) {
	if s.State == StateClear {
		m.entries.Delete(key)
		return
	}
	m.entries.Store(key, s)
}

func (m *alertMachine) forget(sensorID string) {
	m.entries.Range(func(k, _ any) bool {
		if k.(machineKey).sensorID == sensorID {
			m.entries.Delete(k)
		}
		return true
	})
}

func (m *alertMachine) dirtyEntries() map[machineKey]MachineSnapshot {
	out := map[machineKey]MachineSnapshot{}
	m.entries.Range(func(k, v any) bool {
		if s := v.(MachineSnapshot); s.dirty {
			out[k.(machineKey)] = s
		}
		return true
	})
	return out
}

// markClean clears the dirty flag unless the entry changed since it was read.
func (m *alertMachine) markClean(key machineKey, seen MachineSnapshot) {
	clean := seen
	clean.dirty = false
	m.entries.CompareAndSwap(key, seen, clean)
}

func (m *alertMachine) size() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
