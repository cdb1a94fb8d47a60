package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"

	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
	"github.com/dixieflatline76/Framer/util"
	"github.com/dixieflatline76/Framer/util/log"
)

var (
	// ErrBusy is returned when a request of the same kind is already in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrInvalidParams wraps validation failures of the form values.
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrNothingToRetry is returned by Retry before any generation was submitted.
	ErrNothingToRetry = errors.New("nothing to retry")
)

var defaultLoadingMessages = []string{"Generating your image..."}

// subscriberBuffer is how many views a subscriber may fall behind before the
// oldest queued ones are dropped.
const subscriberBuffer = 8

// Options configures a Studio.
type Options struct {
	Defaults          Defaults
	GenerationTimeout time.Duration
	EnhanceTimeout    time.Duration
	LoadingInterval   time.Duration
	ResultTTL         time.Duration
	LoadingMessages   []string
}

// Studio owns the form state, the displayed view and the in-flight guards.
type Studio struct {
	gen        generation.Generator
	compositor *frame.Compositor
	opts       Options

	genSem     *semaphore.Weighted
	enhanceSem *semaphore.Weighted
	seq        *util.Sequence
	generating *util.SafeFlag

	mu      sync.RWMutex
	view    View
	current *Result
	last    *Params

	results *cache.Cache

	subsMu sync.Mutex
	subs   map[chan View]struct{}
}

// New creates a Studio showing the empty view.
func New(gen generation.Generator, compositor *frame.Compositor, opts Options) *Studio {
	if len(opts.LoadingMessages) == 0 {
		opts.LoadingMessages = defaultLoadingMessages
	}
	if opts.LoadingInterval <= 0 {
		opts.LoadingInterval = 3 * time.Second
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 2 * time.Minute
	}
	if opts.EnhanceTimeout <= 0 {
		opts.EnhanceTimeout = 30 * time.Second
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 30 * time.Minute
	}
	if opts.Defaults.Ratio == "" {
		opts.Defaults.Ratio = frame.RatioSquare
	}
	if opts.Defaults.Fit == "" {
		opts.Defaults.Fit = frame.FitPad
	}
	if opts.Defaults.Style == "" {
		opts.Defaults.Style = generation.StyleNone
	}

	return &Studio{
		gen:        gen,
		compositor: compositor,
		opts:       opts,
		genSem:     semaphore.NewWeighted(1),
		enhanceSem: semaphore.NewWeighted(1),
		seq:        util.NewSequence(),
		generating: util.NewSafeFlag(),
		view:       View{Kind: KindEmpty},
		results:    cache.New(opts.ResultTTL, 2*opts.ResultTTL),
		subs:       make(map[chan View]struct{}),
	}
}

// Defaults returns the values applied to empty form fields.
func (s *Studio) Defaults() Defaults {
	return s.opts.Defaults
}

// View returns the current view.
func (s *Studio) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Generating reports whether a generation is in flight.
func (s *Studio) Generating() bool {
	return s.generating.Value()
}

// Result returns a stored result by id.
func (s *Studio) Result(id string) (*Result, bool) {
	v, ok := s.results.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

// Current returns the last successfully generated result, if any.
func (s *Studio) Current() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Generate runs one generation to completion and returns the resulting view.
// The call is detached from ctx cancellation and bounded by the generation
// timeout. On failure the returned error is non-nil, the view shows the error
// and the last good result is kept.
func (s *Studio) Generate(ctx context.Context, p Params) (View, error) {
	req, err := p.request(s.opts.Defaults)
	if err != nil {
		return s.View(), err
	}

	if !s.genSem.TryAcquire(1) {
		return s.View(), ErrBusy
	}
	defer s.genSem.Release(1)

	s.generating.Set(true)
	defer s.generating.Set(false)

	seq := s.seq.Next()
	s.mu.Lock()
	params := p
	s.last = &params
	s.mu.Unlock()

	s.apply(seq, View{Kind: KindLoading, Message: s.opts.LoadingMessages[0]})
	stop := s.rotateLoading(seq)

	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.GenerationTimeout)
	defer cancel()

	log.Printf("generation %d started (%s, %s, %s)", seq, req.Mode(), p.Ratio, p.Fit)
	result, err := s.run(gctx, req, p)
	close(stop)

	if err != nil {
		log.Printf("generation %d failed: %v", seq, err)
		view := s.apply(seq, View{Kind: KindError, Message: generation.Describe(err), CanRetry: true})
		return view, err
	}

	s.results.SetDefault(result.ID, result)
	s.mu.Lock()
	if s.seq.IsCurrent(seq) {
		s.current = result
	}
	s.mu.Unlock()

	log.Printf("generation %d finished: %dx%d %s", seq, result.Width, result.Height, result.ID)
	return s.apply(seq, View{Kind: KindImage, Result: result.Info(), CanRetry: true}), nil
}

func (s *Studio) run(ctx context.Context, req *generation.Request, p Params) (*Result, error) {
	img, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	framed, err := s.compositor.Compose(ctx, img.Data, img.MIMEType, p.Ratio, p.Fit)
	if err != nil {
		return nil, fmt.Errorf("composing image: %w", err)
	}

	return &Result{
		ID:          uuid.NewString(),
		Data:        framed.Data,
		ContentType: framed.ContentType,
		Width:       framed.Width,
		Height:      framed.Height,
		Ratio:       p.Ratio,
		Fit:         p.Fit,
		Mode:        req.Mode(),
		CreatedAt:   time.Now(),
	}, nil
}

// Retry re-submits the last parameters.
func (s *Studio) Retry(ctx context.Context) (View, error) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		return s.View(), ErrNothingToRetry
	}
	return s.Generate(ctx, *last)
}

// Dismiss clears an error view, showing the last good image again if there is one.
func (s *Studio) Dismiss() View {
	s.mu.Lock()
	if s.view.Kind != KindError {
		v := s.view
		s.mu.Unlock()
		return v
	}
	next := View{Kind: KindEmpty, CanRetry: s.last != nil, Seq: s.view.Seq}
	if s.current != nil {
		next.Kind = KindImage
		next.Result = s.current.Info()
	}
	s.view = next
	s.publish(next)
	s.mu.Unlock()
	return next
}

// Enhance asks for a richer prompt. Only one suggestion runs at a time.
func (s *Studio) Enhance(ctx context.Context, prompt string) (string, error) {
	if !s.enhanceSem.TryAcquire(1) {
		return "", ErrBusy
	}
	defer s.enhanceSem.Release(1)

	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.EnhanceTimeout)
	defer cancel()

	suggestion, err := s.gen.Enhance(ectx, prompt)
	if err != nil {
		log.Printf("prompt suggestion failed: %v", err)
		return "", err
	}
	return suggestion, nil
}

// apply replaces the view unless a newer generation has started since seq.
func (s *Studio) apply(seq int, v View) View {
	s.mu.Lock()
	if !s.seq.IsCurrent(seq) {
		current := s.view
		s.mu.Unlock()
		log.Debugf("dropping stale view %d (latest %d)", seq, s.seq.Latest())
		return current
	}
	v.Seq = seq
	s.view = v
	s.publish(v)
	s.mu.Unlock()
	return v
}

// rotateLoading cycles the loading message until the returned channel is closed.
func (s *Studio) rotateLoading(seq int) chan struct{} {
	stop := make(chan struct{})
	if len(s.opts.LoadingMessages) < 2 {
		return stop
	}

	go func() {
		ticker := time.NewTicker(s.opts.LoadingInterval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				i = (i + 1) % len(s.opts.LoadingMessages)
				msg := s.opts.LoadingMessages[i]

				s.mu.Lock()
				if s.view.Kind != KindLoading || s.view.Seq != seq {
					s.mu.Unlock()
					return
				}
				s.view.Message = msg
				s.publish(s.view)
				s.mu.Unlock()
			}
		}
	}()
	return stop
}

// Subscribe returns a channel receiving every view change.
func (s *Studio) Subscribe() chan View {
	ch := make(chan View, subscriberBuffer)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Studio) Unsubscribe(ch chan View) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// publish is called with s.mu held so subscribers see views in order.
func (s *Studio) publish(v View) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}

		// Subscriber is behind: drop its oldest queued view so the newest lands.
		select {
		case old := <-ch:
			log.Printf("subscriber slow, dropped view %d (%s)", old.Seq, old.Kind)
		default:
		}
		select {
		case ch <- v:
		default:
			log.Printf("subscriber slow, dropped view %d (%s)", v.Seq, v.Kind)
		}
	}
}
