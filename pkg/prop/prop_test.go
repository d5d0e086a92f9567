package prop

import (
	"testing"

	"github.com/pion/videocapture/pkg/frame"
)

func TestPresetMatch(t *testing.T) {
	props := []Media{
		{Video: Video{Width: 1280, Height: 720, FrameFormat: frame.FormatNV12}},
		{Video: Video{Width: 640, Height: 480, FrameFormat: frame.FormatYUY2}},
		{Video: Video{Width: 640, Height: 480, FrameFormat: frame.FormatNV12}},
	}

	m, ok := PresetVGA640x480.Match(props, "")
	if !ok {
		t.Fatal("expected a match without a format")
	}
	if m.FrameFormat != frame.FormatYUY2 {
		t.Errorf("expected the first matching size, got %s", m.FrameFormat)
	}

	m, ok = PresetVGA640x480.Match(props, frame.FormatNV12)
	if !ok || m.FrameFormat != frame.FormatNV12 {
		t.Errorf("expected NV12 at 640x480, got %v, %v", m, ok)
	}

	if _, ok := PresetVGA640x480.Match(props, frame.FormatI420); ok {
		t.Error("expected no I420 match")
	}

	if _, ok := PresetVGA640x480.Match(nil, ""); ok {
		t.Error("expected no match for an empty property list")
	}
}

func TestPresetIsZero(t *testing.T) {
	if !(Preset{}).IsZero() {
		t.Error("zero preset must report IsZero")
	}
	if PresetVGA640x480.IsZero() {
		t.Error("VGA preset must not report IsZero")
	}
	if PresetVGA640x480.String() != "vga640x480" {
		t.Errorf("unexpected name %q", PresetVGA640x480.String())
	}
}

func TestMediaString(t *testing.T) {
	m := Media{Video: Video{Width: 640, Height: 480, FrameRate: 30, FrameFormat: frame.FormatNV12}}
	if s := m.String(); s != "640x480 NV12@30fps" {
		t.Errorf("unexpected string %q", s)
	}
}
