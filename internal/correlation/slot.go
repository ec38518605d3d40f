// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package correlation

// SlotState is the lifecycle of one half of a Selection.
type SlotState int

const (
	// SlotEmpty means nothing is selected.
	SlotEmpty SlotState = iota
	// SlotLoading means the lookup is in flight.
	SlotLoading
	// SlotReady means Value holds the result.
	SlotReady
	// SlotFailed means the lookup failed; Err says why.
	SlotFailed
)

// String returns the state name.
func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotLoading:
		return "loading"
	case SlotReady:
		return "ready"
	case SlotFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Slot holds a value that may still be loading or may have failed.
type Slot[T any] struct {
	State SlotState
	Value T
	Err   error
}

// LoadingSlot returns a slot in the Loading state.
func LoadingSlot[T any]() Slot[T] {
	return Slot[T]{State: SlotLoading}
}

// ReadySlot returns a slot holding v.
func ReadySlot[T any](v T) Slot[T] {
	return Slot[T]{State: SlotReady, Value: v}
}

// FailedSlot returns a slot in the Failed state.
func FailedSlot[T any](err error) Slot[T] {
	return Slot[T]{State: SlotFailed, Err: err}
}

// Get returns the value and whether the slot is Ready.
func (s Slot[T]) Get() (T, bool) {
	return s.Value, s.State == SlotReady
}

// Ready reports whether the slot holds a value.
func (s Slot[T]) Ready() bool { return s.State == SlotReady }

// Loading reports whether the lookup is still in flight.
func (s Slot[T]) Loading() bool { return s.State == SlotLoading }

// Failed reports whether the lookup failed.
func (s Slot[T]) Failed() bool { return s.State == SlotFailed }
