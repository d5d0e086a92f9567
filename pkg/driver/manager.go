package driver

import (
	"fmt"
	"sort"
	"sync"
)

// FilterFn is being used to decide if a driver should be included in the
// query result.
type FilterFn func(Driver) bool

// FilterVideoRecorder return a filter function to get video recorders.
func FilterVideoRecorder() FilterFn {
	return func(d Driver) bool {
		_, ok := d.(VideoRecorder)
		return ok
	}
}

// FilterID returns a filter function to get a driver by its ID.
func FilterID(id string) FilterFn {
	return func(d Driver) bool {
		return d.ID() == id
	}
}

// FilterLabel returns a filter function to get drivers by label.
func FilterLabel(label string) FilterFn {
	return func(d Driver) bool {
		return d.Info().Label == label
	}
}

// FilterDeviceType returns a filter function to match specified type.
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// FilterPosition returns a filter function to match any of the given
// positions.
func FilterPosition(positions ...Position) FilterFn {
	return func(d Driver) bool {
		p := d.Info().Position
		for _, want := range positions {
			if p == want {
				return true
			}
		}
		return false
	}
}

// FilterAnd returns a filter function to take logical conjunction of given filters.
func FilterAnd(filters ...FilterFn) FilterFn {
	return func(d Driver) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}

// FilterNot returns a filter function to take logical inverse of the given filter.
func FilterNot(filter FilterFn) FilterFn {
	return func(d Driver) bool {
		return !filter(d)
	}
}

// Manager is a singleton to manage multiple drivers and their states
type Manager struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	order   []string
}

var manager = NewManager()

// GetManager gets manager singleton instance
func GetManager() *Manager {
	return manager
}

// NewManager creates an empty registry. Most callers want GetManager; a
// private Manager is useful to scope devices, for example in tests.
func NewManager() *Manager {
	return &Manager{drivers: make(map[string]Driver)}
}

// Register registers adapter to be discoverable by Query
func (m *Manager) Register(a Adapter, info Info) error {
	if a == nil {
		return fmt.Errorf("adapter can't be nil")
	}

	d := wrapAdapter(a, info)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[d.ID()] = d
	m.order = append(m.order, d.ID())
	return nil
}

// Delete removes a driver from the registry. It doesn't close the driver.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drivers[id]; !ok {
		return
	}
	delete(m.drivers, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Query queries by using f to filter drivers, and simply return the filtered results.
// Results are ordered by priority, then by registration order.
func (m *Manager) Query(f FilterFn) []Driver {
	m.mu.RLock()
	results := make([]Driver, 0, len(m.order))
	for _, id := range m.order {
		d := m.drivers[id]
		if f == nil || f(d) {
			results = append(results, d)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Info().Priority > results[j].Info().Priority
	})
	return results
}
