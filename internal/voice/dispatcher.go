package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/stt"
)

// errorBackoff slows the loop down after an unexpected failure, such as
// a missing input device, so it does not spin.
const errorBackoff = time.Second

// Config holds the dispatcher timings.
type Config struct {
	ListenTimeout     time.Duration
	PhraseLimit       time.Duration
	JoinTimeout       time.Duration
	CalibrateDuration time.Duration
	SettleDelay       time.Duration
	IdleDelay         time.Duration
}

// DefaultConfig returns the timings the status messages are written for.
func DefaultConfig() Config {
	return Config{
		ListenTimeout:     5 * time.Second,
		PhraseLimit:       5 * time.Second,
		JoinTimeout:       time.Second,
		CalibrateDuration: time.Second,
		SettleDelay:       500 * time.Millisecond,
		IdleDelay:         100 * time.Millisecond,
	}
}

// Utterance is a transcribed phrase and what it triggered.
type Utterance struct {
	Text    string
	Kind    string // command or dictation
	Matched []string
	At      time.Time
}

// HistoryRecorder persists utterances.
type HistoryRecorder interface {
	RecordUtterance(ctx context.Context, u Utterance) error
}

// Dispatcher listens for spoken commands on a background goroutine and
// runs the matching entries of its CommandTable.
type Dispatcher struct {
	config      Config
	listener    audio.Listener
	transcriber stt.Transcriber
	table       atomic.Pointer[CommandTable]
	session     *Session
	history     HistoryRecorder
	logger      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a stopped dispatcher.
func NewDispatcher(config Config, listener audio.Listener, transcriber stt.Transcriber, table *CommandTable, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		config:      config,
		listener:    listener,
		transcriber: transcriber,
		session:     &Session{},
		logger:      logger.With().Str("component", "voice").Logger(),
	}
	d.table.Store(table)
	return d
}

// SetHistory sets where recognized utterances are recorded. It must be
// called before Start.
func (d *Dispatcher) SetHistory(h HistoryRecorder) {
	d.history = h
}

// Session returns the shared session state.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Table returns the command table.
func (d *Dispatcher) Table() *CommandTable {
	return d.table.Load()
}

// SetTable replaces the command table. The next transcript is matched
// against the new table.
func (d *Dispatcher) SetTable(t *CommandTable) {
	d.table.Store(t)
}

// Listening reports whether voice commands are enabled.
func (d *Dispatcher) Listening() bool {
	return d.session.Listening()
}

// Status returns the current status message.
func (d *Dispatcher) Status() string {
	return d.session.Status()
}

// Start enables voice commands and returns immediately. It reports false
// when already listening. A loop still draining from a previous Stop is
// waited for before the new one touches the microphone.
func (d *Dispatcher) Start() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.listening.Load() {
		return false
	}

	prev := d.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	d.session.listening.Store(true)
	d.session.cont.Store(true)
	d.session.SetStatus(StatusActivated)

	go d.loop(ctx, prev, done)

	d.logger.Info().Msg("voice commands started")
	return true
}

// Stop disables voice commands. It waits at most JoinTimeout for the
// background loop to exit; a loop blocked in a device read finishes on
// its own afterwards.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.session.listening.Load() {
		d.mu.Unlock()
		return
	}
	d.session.cont.Store(false)
	d.session.SetStatus(StatusDeactivated)
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()

	timer := time.NewTimer(d.config.JoinTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		d.logger.Warn().Dur("timeout", d.config.JoinTimeout).Msg("voice loop still draining after stop")
	}

	d.session.listening.Store(false)
	d.logger.Info().Msg("voice commands stopped")
}

// Toggle starts or stops voice commands and reports the new state.
func (d *Dispatcher) Toggle() bool {
	if d.Listening() {
		d.Stop()
		return false
	}
	d.Start()
	return true
}

// Wait blocks until the current background loop has exited or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) loop(ctx context.Context, prev <-chan struct{}, done chan struct{}) {
	defer close(done)

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	d.report(StatusCalibrating)
	if err := d.listener.Calibrate(ctx, d.config.CalibrateDuration); err != nil && ctx.Err() == nil {
		d.logger.Warn().Err(err).Msg("ambient calibration failed")
	}

	for d.session.Continue() {
		d.iterate(ctx)
		if !sleepCtx(ctx, d.config.IdleDelay) {
			return
		}
	}
}

func (d *Dispatcher) iterate(ctx context.Context) {
	d.report(StatusListening)
	clip, err := d.listener.Listen(ctx, d.config.ListenTimeout, d.config.PhraseLimit)
	if err != nil {
		d.fail(ctx, err)
		return
	}

	d.report(StatusProcessing)
	text, err := d.transcriber.Transcribe(ctx, clip)
	if err != nil {
		d.fail(ctx, err)
		return
	}

	text = normalize(text)
	d.report(statusHeardPrefix + text)
	d.logger.Info().Str("text", text).Msg("command heard")

	matches := d.Table().Match(text)
	if len(matches) == 0 {
		d.report(StatusNotRecognized)
	}

	matched := make([]string, 0, len(matches))
	for _, m := range matches {
		d.run(m)
		matched = append(matched, m.Command.Phrase)
	}
	d.record(Utterance{Text: text, Kind: "command", Matched: matched, At: time.Now()})

	sleepCtx(ctx, d.config.SettleDelay)
}

func (d *Dispatcher) run(m Match) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("phrase", m.Command.Phrase).Msg("command panicked")
			d.report(fmt.Sprintf("%s%v", statusErrorPrefix, r))
		}
	}()

	status := m.Command.Run(m.Arg)
	d.logger.Info().Str("phrase", m.Command.Phrase).Str("arg", m.Arg).Str("status", status).Msg("command executed")
	if status != "" {
		d.report(status)
	}
}

// fail converts an audio-path error into a status message.
func (d *Dispatcher) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}

	switch {
	case errors.Is(err, audio.ErrWaitTimeout):
		d.report(StatusWaitTimeout)
	case errors.Is(err, stt.ErrUnintelligible):
		d.report(StatusUnintelligible)
	case errors.Is(err, stt.ErrServiceUnavailable):
		d.logger.Warn().Err(err).Msg("transcription request failed")
		d.report(StatusRequestFailed)
	case errors.Is(err, stt.ErrTimeout):
		d.logger.Warn().Err(err).Msg("transcription timed out")
		d.report(StatusTranscribeSlow)
	default:
		d.logger.Error().Err(err).Msg("voice loop error")
		d.report(statusErrorPrefix + err.Error())
		sleepCtx(ctx, errorBackoff)
	}
}

func (d *Dispatcher) report(msg string) {
	d.session.setIfContinuing(msg)
}

func (d *Dispatcher) record(u Utterance) {
	if d.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.history.RecordUtterance(ctx, u); err != nil {
		d.logger.Warn().Err(err).Msg("failed to record utterance")
	}
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
