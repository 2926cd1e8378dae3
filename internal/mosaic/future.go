package mosaic

import (
	"image"
)

// Future is the shared, write-once outcome of a substitute request.
type Future struct {
	done chan struct{}
	img  image.Image
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete stores the outcome and wakes every waiter. It must be called
// exactly once.
func (f *Future) complete(img image.Image, err error) {
	f.img, f.err = img, err
	close(f.done)
}

// Done is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the request has completed and returns its outcome.
// All callers observe the same image or the same error.
func (f *Future) Wait() (image.Image, error) {
	<-f.done
	return f.img, f.err
}
