package panel

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Dispatcher hands a request to whatever renders panels. Show must not block
// on the renderer.
type Dispatcher interface {
	Show(ctx context.Context, req Request) error
}

type DispatcherFunc func(ctx context.Context, req Request) error

func (f DispatcherFunc) Show(ctx context.Context, req Request) error { return f(ctx, req) }

// Multi fans a request out to every dispatcher and joins their errors.
func Multi(dispatchers ...Dispatcher) Dispatcher {
	return DispatcherFunc(func(ctx context.Context, req Request) error {
		var errs []error
		for _, d := range dispatchers {
			if err := d.Show(ctx, req); err != nil {
				errs = append(errs, err)
			}
		}
		switch len(errs) {
		case 0:
			return nil
		case 1:
			return errs[0]
		default:
			return errors.Errorf("%d panel dispatchers failed, first: %v", len(errs), errs[0])
		}
	})
}

// Observed calls hook after every successful Show.
func Observed(d Dispatcher, hook func(Request)) Dispatcher {
	return DispatcherFunc(func(ctx context.Context, req Request) error {
		if err := d.Show(ctx, req); err != nil {
			return err
		}
		hook(req)
		return nil
	})
}

// Recorder keeps the most recent requests. With a zero limit it keeps all.
type Recorder struct {
	mu       sync.Mutex
	limit    int
	requests []Request

	// Err is returned from Show when non-nil
	Err error
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Show(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.requests = append(r.requests, req)
	if r.limit > 0 && len(r.requests) > r.limit {
		r.requests = r.requests[len(r.requests)-r.limit:]
	}
	return nil
}

// Requests returns a copy, oldest first.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// Last returns the newest request.
func (r *Recorder) Last() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.requests = nil
	r.mu.Unlock()
}
