package capture

import (
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

// DeviceInput is an opened device attached to a session.
type DeviceInput struct {
	driver driver.Driver
}

// Driver returns the attached device.
func (in *DeviceInput) Driver() driver.Driver {
	return in.driver
}

// VideoDataOutput describes how frames leave the session.
type VideoDataOutput struct {
	PixelFormat       frame.Format
	DiscardLateFrames bool
}

// graph is the configuration of a session. A transaction works on a copy
// and only the commit makes it visible.
type graph struct {
	preset  prop.Preset
	inputs  []*DeviceInput
	outputs []*VideoDataOutput
}

func (g graph) clone() graph {
	return graph{
		preset:  g.preset,
		inputs:  append([]*DeviceInput(nil), g.inputs...),
		outputs: append([]*VideoDataOutput(nil), g.outputs...),
	}
}

func (g graph) hasInput(in *DeviceInput) bool {
	for _, v := range g.inputs {
		if v == in {
			return true
		}
	}
	return false
}

// media returns what to ask the attached device for. ok is false unless the
// graph has exactly one input and one output.
func (g graph) media() (prop.Media, bool) {
	if len(g.inputs) != 1 || len(g.outputs) != 1 {
		return prop.Media{}, false
	}
	d := g.inputs[0].driver
	m, ok := g.preset.Match(d.Properties(), g.outputs[0].PixelFormat)
	if !ok {
		return prop.Media{}, false
	}
	m.DeviceID = d.ID()
	return m, true
}

type transaction struct {
	s      *Session
	staged graph
	// Inputs opened by this transaction. They're closed if it's discarded.
	opened []*DeviceInput
}

func (s *Session) beginConfiguration() *transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &transaction{s: s, staged: s.graph.clone()}
}

func (tx *transaction) setPreset(p prop.Preset) {
	tx.staged.preset = p
}

func (tx *transaction) canAddInput(in *DeviceInput) bool {
	if len(tx.staged.inputs) != 0 {
		return false
	}
	if tx.staged.preset.IsZero() {
		return true
	}
	_, ok := tx.staged.preset.Match(in.driver.Properties(), "")
	return ok
}

func (tx *transaction) addInput(in *DeviceInput) {
	tx.staged.inputs = append(tx.staged.inputs, in)
}

func (tx *transaction) removeInputs() {
	tx.staged.inputs = nil
}

func (tx *transaction) canAddOutput(out *VideoDataOutput) bool {
	if len(tx.staged.outputs) != 0 || len(tx.staged.inputs) != 1 {
		return false
	}
	_, ok := tx.staged.preset.Match(tx.staged.inputs[0].driver.Properties(), out.PixelFormat)
	return ok
}

func (tx *transaction) addOutput(out *VideoDataOutput) {
	tx.staged.outputs = append(tx.staged.outputs, out)
}

func (tx *transaction) removeOutputs() {
	tx.staged.outputs = nil
}

// commit makes the staged graph current and closes the inputs that are no
// longer attached.
func (tx *transaction) commit() {
	s := tx.s
	s.mu.Lock()
	previous := s.graph
	s.graph = tx.staged
	s.mu.Unlock()

	for _, in := range previous.inputs {
		if tx.staged.hasInput(in) {
			continue
		}
		if err := in.driver.Close(); err != nil {
			s.log.Warnf("failed to close %s: %v", in.driver.Info().Label, err)
		}
	}
}

func (tx *transaction) discard() {
	for _, in := range tx.opened {
		if err := in.driver.Close(); err != nil {
			tx.s.log.Warnf("failed to close %s: %v", in.driver.Info().Label, err)
		}
	}
	tx.opened = nil
}
