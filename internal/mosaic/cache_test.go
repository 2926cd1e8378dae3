package mosaic

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingResolver returns a 1x1 image of the requested color and records
// how often each key was requested. Keys in fail are rejected; keys in
// gates block until their channel is closed.
type countingResolver struct {
	mu    sync.Mutex
	calls map[ColorKey]int
	total atomic.Int64

	fail  map[ColorKey]error
	gates map[ColorKey]chan struct{}
}

func newCountingResolver() *countingResolver {
	return &countingResolver{
		calls: make(map[ColorKey]int),
		fail:  make(map[ColorKey]error),
		gates: make(map[ColorKey]chan struct{}),
	}
}

func (r *countingResolver) Request(ctx context.Context, key ColorKey) (image.Image, error) {
	r.mu.Lock()
	r.calls[key]++
	gate := r.gates[key]
	err := r.fail[key]
	r.mu.Unlock()
	r.total.Add(1)

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	red, green, blue, err := key.RGB()
	if err != nil {
		return nil, err
	}
	return createInMemoryImage(1, 1, color.RGBA{red, green, blue, 255}), nil
}

func (r *countingResolver) Calls(key ColorKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

func TestTileCache_SingleFlight(t *testing.T) {
	resolver := newCountingResolver()
	gate := make(chan struct{})
	resolver.gates["707bf0"] = gate
	cache := NewTileCache(resolver, nil)

	const callers = 64
	futures := make([]*Future, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			futures[i] = cache.Resolve(context.Background(), "707bf0")
		}()
	}
	wg.Wait()
	close(gate)

	first, err := futures[0].Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	for i, f := range futures {
		if f != futures[0] {
			t.Fatalf("caller %d got a different future", i)
		}
		img, _ := f.Wait()
		if img != first {
			t.Fatalf("caller %d got a different image", i)
		}
	}

	if got := resolver.Calls("707bf0"); got != 1 {
		t.Errorf("resolver calls: got %d, want 1", got)
	}
	if cache.Requests() != 1 || cache.Len() != 1 {
		t.Errorf("Requests=%d Len=%d, want 1 and 1", cache.Requests(), cache.Len())
	}
}

func TestTileCache_DistinctKeys(t *testing.T) {
	resolver := newCountingResolver()
	cache := NewTileCache(resolver, nil)

	keys := []ColorKey{"000000", "ffffff", "02278c", "000000", "ffffff"}
	for _, k := range keys {
		if _, err := cache.Resolve(context.Background(), k).Wait(); err != nil {
			t.Fatalf("Resolve(%s) failed: %v", k, err)
		}
	}

	if got := resolver.total.Load(); got != 3 {
		t.Errorf("resolver calls: got %d, want 3", got)
	}
	if cache.Len() != 3 {
		t.Errorf("Len: got %d, want 3", cache.Len())
	}
}

func TestTileCache_SlowKeyDoesNotBlockOthers(t *testing.T) {
	resolver := newCountingResolver()
	gate := make(chan struct{})
	defer close(gate)
	resolver.gates["000000"] = gate
	cache := NewTileCache(resolver, nil)

	slow := cache.Resolve(context.Background(), "000000")
	fast := cache.Resolve(context.Background(), "ffffff")

	select {
	case <-fast.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fast key blocked behind slow key")
	}
	select {
	case <-slow.Done():
		t.Fatal("slow key completed before its gate opened")
	default:
	}
}

func TestTileCache_FailureIsShared(t *testing.T) {
	resolver := newCountingResolver()
	cause := errors.New("service unavailable")
	resolver.fail["abcdef"] = cause
	cache := NewTileCache(resolver, nil)

	_, err1 := cache.Resolve(context.Background(), "abcdef").Wait()
	_, err2 := cache.Resolve(context.Background(), "abcdef").Wait()

	if err1 == nil {
		t.Fatal("expected failure")
	}
	if err1 != err2 {
		t.Errorf("callers observed different errors: %v vs %v", err1, err2)
	}
	if !errors.Is(err1, ErrResolutionFailure) {
		t.Errorf("error should match ErrResolutionFailure: %v", err1)
	}
	if !errors.Is(err1, cause) {
		t.Errorf("error should wrap the resolver error: %v", err1)
	}

	var re *ResolutionError
	if !errors.As(err1, &re) || re.Key != "abcdef" {
		t.Errorf("expected ResolutionError for abcdef, got %v", err1)
	}
	if got := resolver.Calls("abcdef"); got != 1 {
		t.Errorf("failed key retried: %d calls", got)
	}
}

func TestTileCache_NilImageIsFailure(t *testing.T) {
	cache := NewTileCache(ResolverFunc(func(ctx context.Context, key ColorKey) (image.Image, error) {
		return nil, nil
	}), nil)

	_, err := cache.Resolve(context.Background(), "123456").Wait()
	if !errors.Is(err, ErrResolutionFailure) {
		t.Errorf("got %v, want ErrResolutionFailure", err)
	}
}
