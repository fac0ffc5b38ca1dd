package keyboard

import "sync"

// Stroke is one call made against a Recorder.
type Stroke struct {
	Keys []Key
	Text string
}

// Recorder is a Synthesizer that records strokes instead of injecting them.
// It backs the headless mode and the tests.
type Recorder struct {
	mu      sync.Mutex
	strokes []Stroke

	// OnStroke, when set, is called after every recorded stroke.
	OnStroke func(Stroke)

	// Err is returned from Send and Type when non-nil.
	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(keys ...Key) error {
	return r.record(Stroke{Keys: append([]Key(nil), keys...)})
}

func (r *Recorder) Type(text string) error {
	return r.record(Stroke{Text: text})
}

func (r *Recorder) record(s Stroke) error {
	r.mu.Lock()
	if r.Err != nil {
		err := r.Err
		r.mu.Unlock()
		return err
	}
	r.strokes = append(r.strokes, s)
	fn := r.OnStroke
	r.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return nil
}

// Strokes returns a copy of everything recorded so far.
func (r *Recorder) Strokes() []Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stroke(nil), r.strokes...)
}

// Reset drops recorded strokes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.strokes = nil
	r.mu.Unlock()
}

func (r *Recorder) IsAvailable() bool { return true }

func (r *Recorder) Close() error { return nil }
