package audio

import "sync"

// Recorder is a Player that remembers every tone played and every handle lifecycle.
// Set FailOpen or FailPlay to simulate a broken audio device.
type Recorder struct {
	mu       sync.Mutex
	tones    []Tone
	opened   int
	closed   int
	FailOpen error
	FailPlay error
}

// Open records a new handle.
func (r *Recorder) Open() (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOpen != nil {
		return nil, r.FailOpen
	}
	r.opened++
	return &recorderHandle{r: r}, nil
}

// Tones returns a copy of the tones played so far.
func (r *Recorder) Tones() []Tone {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tone(nil), r.tones...)
}

// Balance returns how many handles were opened and closed.
func (r *Recorder) Balance() (opened, closed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, r.closed
}

type recorderHandle struct {
	r    *Recorder
	once sync.Once
}

func (h *recorderHandle) Play(t Tone) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if h.r.FailPlay != nil {
		return h.r.FailPlay
	}
	h.r.tones = append(h.r.tones, t)
	return nil
}

func (h *recorderHandle) Close() error {
	h.once.Do(func() {
		h.r.mu.Lock()
		h.r.closed++
		h.r.mu.Unlock()
	})
	return nil
}
