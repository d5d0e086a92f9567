package driver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/videocapture/pkg/prop"
)

func wrapAdapter(a Adapter, info Info) Driver {
	w := &adapterWrapper{
		Adapter: a,
		id:      uuid.NewString(),
		info:    info,
		state:   StateClosed,
	}

	if vr, ok := a.(VideoRecorder); ok {
		return &videoAdapterWrapper{adapterWrapper: w, recorder: vr}
	}
	return w
}

type adapterWrapper struct {
	Adapter
	id   string
	info Info

	mu    sync.Mutex
	state State
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *adapterWrapper) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateOpened, w.Adapter.Open)
}

func (w *adapterWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	return w.state.Update(StateClosed, w.Adapter.Close)
}

func (w *adapterWrapper) Properties() []prop.Media {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	return w.Adapter.Properties()
}

type videoAdapterWrapper struct {
	*adapterWrapper
	recorder VideoRecorder
}

func (w *videoAdapterWrapper) VideoRecord(p prop.Media) (ReadCloser, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var rc ReadCloser
	err := w.state.Update(StateRunning, func() error {
		var err error
		rc, err = w.recorder.VideoRecord(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	return NewReadCloser(rc.Read, func() error {
		err := rc.Close()
		w.mu.Lock()
		if w.state == StateRunning {
			w.state = StateOpened
		}
		w.mu.Unlock()
		return err
	}), nil
}
