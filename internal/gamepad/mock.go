package gamepad

import "sync"

// ScriptedSource is an AxisSource with manually set axis values, for tests
// and for exercising the input loop without hardware.
type ScriptedSource struct {
	mu        sync.RWMutex
	axes      map[int]float64
	connected bool
}

// NewScriptedSource returns a connected source with all axes centred.
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{axes: make(map[int]float64), connected: true}
}

// SetAxis sets the value returned for an axis index.
func (s *ScriptedSource) SetAxis(index int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axes[index] = value
}

// SetConnected toggles the liveness answer.
func (s *ScriptedSource) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *ScriptedSource) Axis(index int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.axes[index]
}

func (s *ScriptedSource) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *ScriptedSource) Close() error { return nil }
