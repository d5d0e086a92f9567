package driver

import (
	"fmt"
	"io"
	"testing"

	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

var (
	recordErr = fmt.Errorf("failed to start recording")
)

type adapterMock struct{}

func (a *adapterMock) Open() error              { return nil }
func (a *adapterMock) Close() error             { return nil }
func (a *adapterMock) Properties() []prop.Media { return []prop.Media{{}} }

type videoAdapterMock struct{ adapterMock }

func (a *videoAdapterMock) VideoRecord(p prop.Media) (ReadCloser, error) {
	return NewReadCloser(func() (frame.PixelBuffer, func(), error) {
		return nil, nil, io.EOF
	}, func() error { return nil }), nil
}

type videoAdapterBrokenMock struct{ adapterMock }

func (a *videoAdapterBrokenMock) VideoRecord(p prop.Media) (ReadCloser, error) {
	return nil, recordErr
}

func TestVideoWrapperState(t *testing.T) {
	var a videoAdapterMock
	d := wrapAdapter(&a, Info{})

	if d.Properties() != nil {
		t.Errorf("expected nil, but got %v", d.Properties())
	}

	vr := d.(VideoRecorder)
	_, err := vr.VideoRecord(prop.Media{})
	if err == nil {
		t.Errorf("expected to get an invalid state")
	}

	err = d.Open()
	if err != nil {
		t.Errorf("expected to successfully open, but got %v", err)
	}

	if d.Status() != StateOpened {
		t.Errorf("expected %s, but got %s", StateOpened, d.Status())
	}

	if d.Properties() == nil {
		t.Errorf("expected properties once opened")
	}

	err = d.Open()
	if err == nil {
		t.Errorf("expected to get an error when opening twice")
	}

	rc, err := vr.VideoRecord(prop.Media{})
	if err != nil {
		t.Errorf("expected to successfully start recording, but got %v", err)
	}

	if d.Status() != StateRunning {
		t.Errorf("expected %s, but got %s", StateRunning, d.Status())
	}

	if _, err := vr.VideoRecord(prop.Media{}); err == nil {
		t.Errorf("expected to get an error when recording twice")
	}

	if err := rc.Close(); err != nil {
		t.Errorf("expected to successfully stop recording, but got %v", err)
	}

	if d.Status() != StateOpened {
		t.Errorf("expected %s after stopping, but got %s", StateOpened, d.Status())
	}

	err = d.Close()
	if err != nil {
		t.Errorf("expected to successfully close, but got %v", err)
	}

	if d.Status() != StateClosed {
		t.Errorf("expected %s, but got %s", StateClosed, d.Status())
	}

	if err := d.Close(); err != nil {
		t.Errorf("closing a closed driver must be a no-op, got %v", err)
	}
}

func TestVideoWrapperBroken(t *testing.T) {
	var a videoAdapterBrokenMock
	d := wrapAdapter(&a, Info{Label: "broken"})

	if err := d.Open(); err != nil {
		t.Fatal(err)
	}

	_, err := d.(VideoRecorder).VideoRecord(prop.Media{})
	if err != recordErr {
		t.Errorf("expected %v, got %v", recordErr, err)
	}

	if d.Status() != StateOpened {
		t.Errorf("a failed recording must leave the driver %s, got %s", StateOpened, d.Status())
	}

	if d.Info().Label != "broken" {
		t.Errorf("unexpected label %q", d.Info().Label)
	}
}

func TestWrapAdapterWithoutRecorder(t *testing.T) {
	d := wrapAdapter(&adapterMock{}, Info{})
	if _, ok := d.(VideoRecorder); ok {
		t.Error("a plain adapter must not be exposed as a video recorder")
	}
	if d.ID() == "" {
		t.Error("expected a generated ID")
	}
}
