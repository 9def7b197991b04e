package voice

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/audio"
)

// listenStep scripts one Listen call.
type listenStep struct {
	err   error
	block bool // ignore ctx and wait for release
}

// fakeListener replays scripted Listen results and then reports wait
// timeouts forever.
type fakeListener struct {
	mu           sync.Mutex
	steps        []listenStep
	listens      int
	calibrations int
	calibrateErr error

	entered chan struct{}
	release chan struct{}
}

func newFakeListener(steps ...listenStep) *fakeListener {
	return &fakeListener{
		steps:   steps,
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (f *fakeListener) Calibrate(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calibrations++
	return f.calibrateErr
}

func (f *fakeListener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (*audio.Clip, error) {
	f.mu.Lock()
	f.listens++
	var step listenStep
	scripted := len(f.steps) > 0
	if scripted {
		step = f.steps[0]
		f.steps = f.steps[1:]
	}
	f.mu.Unlock()

	if !scripted {
		select {
		case <-time.After(2 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return nil, audio.ErrWaitTimeout
	}

	if step.block {
		f.entered <- struct{}{}
		<-f.release
		return nil, audio.ErrWaitTimeout
	}
	if step.err != nil {
		return nil, step.err
	}
	return &audio.Clip{Samples: []int16{1, 2, 3}, SampleRate: 16000, Channels: 1}, nil
}

func (f *fakeListener) Listens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listens
}

type transcript struct {
	text string
	err  error
}

// fakeTranscriber returns scripted results in order.
type fakeTranscriber struct {
	mu      sync.Mutex
	results []transcript
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return "", context.DeadlineExceeded
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.text, r.err
}

// memoryHistory collects recorded utterances.
type memoryHistory struct {
	mu    sync.Mutex
	items []Utterance
}

func (h *memoryHistory) RecordUtterance(ctx context.Context, u Utterance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, u)
	return nil
}

func (h *memoryHistory) Items() []Utterance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Utterance(nil), h.items...)
}
