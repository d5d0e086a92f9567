package capture

import (
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/driver/availability"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

// The session always captures VGA NV12 and drops frames the consumer path
// can't keep up with.
var (
	sessionPreset      = prop.PresetVGA640x480
	sessionPixelFormat = frame.FormatNV12
)

func (s *Session) configure() error {
	wasRunning := s.running.Load()
	if wasRunning {
		if err := s.stopRunning(); err != nil {
			s.log.Warnf("failed to stop before configuring: %v", err)
		}
	}

	tx := s.beginConfiguration()
	if err := s.stage(tx); err != nil {
		tx.discard()
		s.log.Warnf("configuration failed: %v", err)
		if wasRunning {
			if err := s.startRunning(); err != nil {
				s.log.Errorf("failed to restart after a failed configuration: %v", err)
			}
		}
		return err
	}
	tx.commit()

	in := tx.staged.inputs[0].driver.Info()
	s.log.Infof("configured %s with %s %s", in.Label, tx.staged.preset, tx.staged.outputs[0].PixelFormat)
	return nil
}

func (s *Session) stage(tx *transaction) error {
	tx.setPreset(sessionPreset)

	in, err := s.resolveInput(tx)
	if err != nil {
		return err
	}

	tx.removeInputs()
	if !tx.canAddInput(in) {
		return configError(InvalidInput, "%s doesn't support %s", in.driver.Info().Label, tx.staged.preset)
	}
	tx.addInput(in)

	tx.removeOutputs()
	out := &VideoDataOutput{
		PixelFormat:       sessionPixelFormat,
		DiscardLateFrames: true,
	}
	if !tx.canAddOutput(out) {
		return configError(InvalidOutput, "%s can't produce %s at %s", in.driver.Info().Label, out.PixelFormat, tx.staged.preset)
	}
	tx.addOutput(out)
	return nil
}

// resolveInput finds the device to attach. An input that is already attached
// to the same device is reused as is.
func (s *Session) resolveInput(tx *transaction) (*DeviceInput, error) {
	d, ok := s.selectDevice()
	if !ok {
		return nil, &ConfigError{Kind: InvalidInput, Err: availability.ErrNoDevice}
	}

	for _, in := range tx.staged.inputs {
		if in.driver.ID() == d.ID() {
			return in, nil
		}
	}

	if err := d.Open(); err != nil {
		if availability.IsError(err) {
			s.log.Warnf("%s is unavailable: %v", d.Info().Label, err)
		}
		return nil, configError(InvalidInput, "failed to open %s: %w", d.Info().Label, err)
	}
	in := &DeviceInput{driver: d}
	tx.opened = append(tx.opened, in)
	return in, nil
}

// selectDevice returns the first match, preferring a back facing device.
func (s *Session) selectDevice() (driver.Driver, bool) {
	drivers := s.manager.Query(s.filter)
	if len(drivers) == 0 {
		return nil, false
	}
	for _, d := range drivers {
		if d.Info().Position == driver.PositionBack {
			return d, true
		}
	}
	return drivers[0], true
}
