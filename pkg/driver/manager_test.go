package driver

import (
	"testing"
)

func filterTrue(d Driver) bool {
	return true
}
func filterFalse(d Driver) bool {
	return false
}

func TestFilterNot(t *testing.T) {
	if FilterNot(filterTrue)(nil) != false {
		t.Error("FilterNot(filterTrue)() must be false")
	}
	if FilterNot(filterFalse)(nil) != true {
		t.Error("FilterNot(filterFalse)() must be true")
	}
}

func TestFilterAnd(t *testing.T) {
	if FilterAnd(filterTrue, filterTrue)(nil) != true {
		t.Error("FilterAnd(filterTrue, filterTrue)() must be true")
	}
	if FilterAnd(filterTrue, filterFalse)(nil) != false {
		t.Error("FilterAnd(filterTrue, filterFalse)() must be false")
	}
	if FilterAnd(filterFalse, filterTrue)(nil) != false {
		t.Error("FilterAnd(filterFalse, filterTrue)() must be false")
	}
	if FilterAnd(filterFalse, filterFalse)(nil) != false {
		t.Error("FilterAnd(filterFalse, filterFalse)() must be false")
	}
	if FilterAnd(filterTrue, filterTrue, filterTrue)(nil) != true {
		t.Error("FilterAnd(filterTrue, filterTrue, filterTrue)() must be true")
	}
}

func TestManagerQuery(t *testing.T) {
	m := NewManager()
	m.Register(&videoAdapterMock{}, Info{Label: "low", DeviceType: Camera, Priority: PriorityLow})
	m.Register(&videoAdapterMock{}, Info{Label: "back", DeviceType: Camera, Position: PositionBack})
	m.Register(&videoAdapterMock{}, Info{Label: "front", DeviceType: Camera, Position: PositionFront})
	m.Register(&videoAdapterMock{}, Info{Label: "screen", DeviceType: Screen, Priority: PriorityHigh})
	m.Register(&adapterMock{}, Info{Label: "mute", DeviceType: Camera})

	all := m.Query(nil)
	if len(all) != 5 {
		t.Fatalf("expected 5 drivers, got %d", len(all))
	}
	labels := make([]string, len(all))
	for i, d := range all {
		labels[i] = d.Info().Label
	}
	expected := []string{"screen", "back", "front", "mute", "low"}
	for i := range expected {
		if labels[i] != expected[i] {
			t.Fatalf("expected order %v, got %v", expected, labels)
		}
	}

	cams := m.Query(FilterAnd(FilterDeviceType(Camera), FilterVideoRecorder()))
	if len(cams) != 3 {
		t.Errorf("expected 3 camera recorders, got %d", len(cams))
	}

	backs := m.Query(FilterPosition(PositionBack, PositionUnspecified))
	if len(backs) != 4 {
		t.Errorf("expected 4 back or unspecified drivers, got %d", len(backs))
	}

	front := m.Query(FilterLabel("front"))
	if len(front) != 1 {
		t.Fatalf("expected 1 front driver, got %d", len(front))
	}

	if got := m.Query(FilterID(front[0].ID())); len(got) != 1 || got[0] != front[0] {
		t.Errorf("FilterID didn't find the driver")
	}

	m.Delete(front[0].ID())
	m.Delete("unknown")
	if got := m.Query(FilterLabel("front")); len(got) != 0 {
		t.Errorf("expected the front driver to be deleted")
	}
	if got := m.Query(nil); len(got) != 4 {
		t.Errorf("expected 4 drivers after delete, got %d", len(got))
	}
}

func TestManagerRegisterNil(t *testing.T) {
	if err := NewManager().Register(nil, Info{}); err == nil {
		t.Error("expected an error for a nil adapter")
	}
}
