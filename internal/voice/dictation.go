package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/stt"
)

// Dictation feedback messages.
const (
	FeedbackStarting      = "Starting mic..."
	FeedbackCalibrating   = "Listening... adjusting noise"
	FeedbackSpeak         = "Speak now..."
	FeedbackTranscribing  = "Transcribing..."
	FeedbackRetrying      = "Retrying, speak again..."
	FeedbackNoVoice       = "No voice detected."
	FeedbackNoSpeech      = "No speech detected."
	FeedbackNotUnderstood = "Couldn't understand you."
	FeedbackConnection    = "Connection error."
	FeedbackTimedOut      = "Transcription timed out."
	FeedbackMicError      = "Microphone error."
)

// pendingSize bounds transcriptions waiting to be drained by the keyboard loop.
const pendingSize = 8

// DictationConfig holds the dictation timings.
type DictationConfig struct {
	CalibrateDuration time.Duration
	ListenTimeout     time.Duration
	PhraseLimit       time.Duration
	Retries           int
	ClearDelay        time.Duration
}

// DefaultDictationConfig returns the dictation timings.
func DefaultDictationConfig() DictationConfig {
	return DictationConfig{
		CalibrateDuration: 1500 * time.Millisecond,
		ListenTimeout:     6 * time.Second,
		PhraseLimit:       6 * time.Second,
		Retries:           1,
		ClearDelay:        time.Second,
	}
}

// Dictation transcribes one utterance per Begin on a background goroutine
// and queues the text for the keyboard loop.
type Dictation struct {
	config      DictationConfig
	listener    audio.Listener
	transcriber stt.Transcriber
	history     HistoryRecorder
	logger      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	active  atomic.Bool
	pending chan string

	mu       sync.Mutex
	feedback string
	gen      uint64
}

// NewDictation creates an idle dictation worker.
func NewDictation(config DictationConfig, listener audio.Listener, transcriber stt.Transcriber, logger zerolog.Logger) *Dictation {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dictation{
		config:      config,
		listener:    listener,
		transcriber: transcriber,
		logger:      logger.With().Str("component", "dictation").Logger(),
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(chan string, pendingSize),
	}
}

// SetHistory sets where dictated text is recorded.
func (d *Dictation) SetHistory(h HistoryRecorder) {
	d.history = h
}

// Begin starts a dictation unless one is already running.
func (d *Dictation) Begin() bool {
	if d.ctx.Err() != nil || !d.active.CompareAndSwap(false, true) {
		return false
	}

	gen := d.setFeedback(FeedbackStarting)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run()
		d.finish(gen)
	}()
	return true
}

// Active reports whether a dictation is in progress.
func (d *Dictation) Active() bool {
	return d.active.Load()
}

// Feedback returns the message to draw next to the keyboard.
func (d *Dictation) Feedback() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feedback
}

// Next returns one transcription waiting to be typed, if any.
func (d *Dictation) Next() (string, bool) {
	select {
	case text := <-d.pending:
		return text, true
	default:
		return "", false
	}
}

// Close cancels a running dictation and waits for it.
func (d *Dictation) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dictation) run() {
	ctx := d.ctx

	d.setFeedback(FeedbackCalibrating)
	if err := d.listener.Calibrate(ctx, d.config.CalibrateDuration); err != nil {
		if ctx.Err() == nil {
			d.logger.Warn().Err(err).Msg("calibration failed")
			d.setFeedback(FeedbackMicError)
		}
		return
	}

	d.setFeedback(FeedbackSpeak)
	retries := d.config.Retries
	retried := false
	for {
		clip, err := d.listener.Listen(ctx, d.config.ListenTimeout, d.config.PhraseLimit)
		if errors.Is(err, audio.ErrWaitTimeout) && retries > 0 {
			retries--
			retried = true
			d.setFeedback(FeedbackRetrying)
			continue
		}

		var text string
		if err == nil {
			d.setFeedback(FeedbackTranscribing)
			text, err = d.transcriber.Transcribe(ctx, clip)
		}
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Info().Err(err).Bool("retried", retried).Msg("dictation failed")
				d.setFeedback(dictationFeedback(err, retried))
			}
			return
		}

		d.push(text)
		return
	}
}

func (d *Dictation) push(text string) {
	select {
	case d.pending <- text:
	default:
		d.logger.Warn().Msg("dictation queue full, dropping text")
		return
	}

	if d.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		u := Utterance{Text: text, Kind: "dictation", At: time.Now()}
		if err := d.history.RecordUtterance(ctx, u); err != nil {
			d.logger.Warn().Err(err).Msg("failed to record dictation")
		}
	}
}

// finish marks the worker idle and clears its feedback after ClearDelay,
// unless a newer dictation has started meanwhile.
func (d *Dictation) finish(gen uint64) {
	d.active.Store(false)
	time.AfterFunc(d.config.ClearDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.gen == gen {
			d.feedback = ""
		}
	})
}

// setFeedback replaces the feedback. Only Begin's call starts a new generation.
func (d *Dictation) setFeedback(msg string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if msg == FeedbackStarting {
		d.gen++
	}
	d.feedback = msg
	return d.gen
}

// dictationFeedback maps a failure to the message shown to the user. Any
// failure after the retry reads as "no voice".
func dictationFeedback(err error, retried bool) string {
	switch {
	case retried:
		return FeedbackNoVoice
	case errors.Is(err, audio.ErrWaitTimeout):
		return FeedbackNoSpeech
	case errors.Is(err, stt.ErrUnintelligible):
		return FeedbackNotUnderstood
	case errors.Is(err, stt.ErrServiceUnavailable):
		return FeedbackConnection
	case errors.Is(err, stt.ErrTimeout):
		return FeedbackTimedOut
	default:
		return FeedbackMicError
	}
}
