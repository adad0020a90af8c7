// Package model provides state management shared by the fitted components of
// the pipeline (encoder and classifiers).
package model

import (
	"fmt"
	"sync"
)

// StateManager manages the fitted state of a component in a thread-safe manner.
// Fields are exported for serialization.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	// Dimensions observed during fitting.
	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the component has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the component as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// Dimensions returns the recorded feature and sample counts.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted returns an error message suitable for wrapping when the
// component is used before fitting.
func (s *StateManager) RequireFitted(name, method string) error {
	if s.IsFitted() {
		return nil
	}
	return fmt.Errorf("%s: not fitted, call Fit() before %s()", name, method)
}
