package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/stt"
)

func fastConfig() Config {
	return Config{
		ListenTimeout: 5 * time.Second,
		PhraseLimit:   5 * time.Second,
		JoinTimeout:   200 * time.Millisecond,
		IdleDelay:     time.Millisecond,
	}
}

// parkedConfig runs one iteration and then idles, so the status it set stays visible.
func parkedConfig() Config {
	cfg := fastConfig()
	cfg.IdleDelay = time.Hour
	return cfg
}

func newTestDispatcher(t *testing.T, cfg Config, l *fakeListener, tr *fakeTranscriber) (*Dispatcher, *input.Recorder, *mode.Machine) {
	t.Helper()
	table, rec, modes := newBuiltinTable(t, MatchAll)
	d := NewDispatcher(cfg, l, tr, table, zerolog.Nop())
	t.Cleanup(func() {
		d.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Wait(ctx)
	})
	return d, rec, modes
}

func (f *fakeListener) Calibrations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calibrations
}

func TestDispatcher_RunsMatchedCommand(t *testing.T) {
	l := newFakeListener(listenStep{})
	tr := &fakeTranscriber{results: []transcript{{text: "Scroll down"}}}
	d, rec, _ := newTestDispatcher(t, parkedConfig(), l, tr)
	history := &memoryHistory{}
	d.SetHistory(history)

	require.True(t, d.Start())
	assert.True(t, d.Listening())

	require.Eventually(t, func() bool { return len(history.Items()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"scroll -300"}, rec.Calls())
	assert.Equal(t, "Scrolled down", d.Status())

	u := history.Items()[0]
	assert.Equal(t, "scroll down", u.Text)
	assert.Equal(t, "command", u.Kind)
	assert.Equal(t, []string{"scroll down"}, u.Matched)

	assert.Equal(t, 1, l.Calibrations())
}

func TestDispatcher_MultiMatchRunsBoth(t *testing.T) {
	l := newFakeListener(listenStep{})
	tr := &fakeTranscriber{results: []transcript{{text: "mute and scroll down"}}}
	d, rec, _ := newTestDispatcher(t, parkedConfig(), l, tr)

	require.True(t, d.Start())
	require.Eventually(t, func() bool { return len(rec.Calls()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"scroll -300", "mute"}, rec.Calls())
	assert.Equal(t, "Audio muted/unmuted", d.Status(), "last command's status wins")
}

func TestDispatcher_ModeSwitchIsQueued(t *testing.T) {
	l := newFakeListener(listenStep{})
	tr := &fakeTranscriber{results: []transcript{{text: "switch to keyboard"}}}
	d, _, modes := newTestDispatcher(t, parkedConfig(), l, tr)

	require.True(t, d.Start())

	var req mode.Request
	require.Eventually(t, func() bool {
		var ok bool
		req, ok = modes.Poll()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, mode.Keyboard, req.To)
	assert.Equal(t, mode.Mouse, modes.Current())
}

func TestDispatcher_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		listen error
		text   transcript
		want   string
	}{
		{name: "wait timeout", listen: audio.ErrWaitTimeout, want: StatusWaitTimeout},
		{name: "unintelligible", text: transcript{err: stt.ErrUnintelligible}, want: StatusUnintelligible},
		{name: "service down", text: transcript{err: stt.ErrServiceUnavailable}, want: StatusRequestFailed},
		{name: "transcription timeout", text: transcript{err: stt.ErrTimeout}, want: StatusTranscribeSlow},
		{name: "not recognized", text: transcript{text: "sing a song"}, want: StatusNotRecognized},
		{name: "unexpected", listen: errors.New("device busy"), want: "Error: device busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newFakeListener(listenStep{err: tt.listen})
			tr := &fakeTranscriber{results: []transcript{tt.text}}
			d, _, _ := newTestDispatcher(t, parkedConfig(), l, tr)

			require.True(t, d.Start())
			require.Eventually(t, func() bool { return d.Status() == tt.want }, 2*time.Second, 5*time.Millisecond)
			assert.True(t, d.Listening(), "errors never stop the loop")
		})
	}
}

func TestDispatcher_KeepsListeningAfterErrors(t *testing.T) {
	l := newFakeListener(
		listenStep{err: audio.ErrWaitTimeout},
		listenStep{},
		listenStep{block: true},
	)
	tr := &fakeTranscriber{results: []transcript{{err: stt.ErrUnintelligible}}}
	d, _, _ := newTestDispatcher(t, fastConfig(), l, tr)
	defer close(l.release)

	require.True(t, d.Start())
	<-l.entered

	assert.Equal(t, StatusListening, d.Status())
	assert.Equal(t, 3, l.Listens())
	assert.True(t, d.Listening())
}

func TestDispatcher_StartIsIdempotent(t *testing.T) {
	l := newFakeListener()
	d, _, _ := newTestDispatcher(t, fastConfig(), l, &fakeTranscriber{})

	assert.True(t, d.Start())
	assert.False(t, d.Start(), "already listening")
	assert.True(t, d.Listening())
}

func TestDispatcher_StopWhileBlockedIsBounded(t *testing.T) {
	l := newFakeListener(listenStep{block: true})
	d, _, _ := newTestDispatcher(t, fastConfig(), l, &fakeTranscriber{})

	require.True(t, d.Start())
	<-l.entered

	start := time.Now()
	d.Stop()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, fastConfig().JoinTimeout)
	assert.Less(t, elapsed, fastConfig().JoinTimeout+500*time.Millisecond)
	assert.False(t, d.Listening())
	assert.Equal(t, StatusDeactivated, d.Status())

	// The blocked call finishes later and the loop exits without
	// overwriting the deactivation notice.
	close(l.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	assert.Equal(t, StatusDeactivated, d.Status())
}

func TestDispatcher_StopIdleIsPrompt(t *testing.T) {
	l := newFakeListener()
	d, _, _ := newTestDispatcher(t, fastConfig(), l, &fakeTranscriber{})

	require.True(t, d.Start())
	require.Eventually(t, func() bool { return l.Listens() > 0 }, time.Second, time.Millisecond)

	start := time.Now()
	d.Stop()
	assert.Less(t, time.Since(start), fastConfig().JoinTimeout)
	assert.False(t, d.Listening())

	d.Stop() // no-op
}

func TestDispatcher_RestartAfterStop(t *testing.T) {
	l := newFakeListener(listenStep{block: true})
	d, _, _ := newTestDispatcher(t, fastConfig(), l, &fakeTranscriber{})

	require.True(t, d.Start())
	<-l.entered
	d.Stop()

	require.True(t, d.Start(), "restart while the old loop drains")
	assert.True(t, d.Listening())

	assert.Equal(t, 1, l.Calibrations(), "new loop waits for the old one")

	close(l.release)
	require.Eventually(t, func() bool { return l.Calibrations() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestDispatcher_Toggle(t *testing.T) {
	d, _, _ := newTestDispatcher(t, fastConfig(), newFakeListener(), &fakeTranscriber{})

	assert.True(t, d.Toggle())
	assert.True(t, d.Listening())
	assert.False(t, d.Toggle())
	assert.False(t, d.Listening())
}

func TestDispatcher_CommandPanicIsContained(t *testing.T) {
	l := newFakeListener(listenStep{})
	tr := &fakeTranscriber{results: []transcript{{text: "explode"}}}
	table, err := NewCommandTable(MatchAll, Command{Phrase: "explode", Run: func(string) string { panic("boom") }})
	require.NoError(t, err)

	d := NewDispatcher(parkedConfig(), l, tr, table, zerolog.Nop())
	history := &memoryHistory{}
	d.SetHistory(history)
	defer d.Stop()

	require.True(t, d.Start())
	require.Eventually(t, func() bool { return len(history.Items()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Error: boom", d.Status())
	assert.True(t, d.Listening())
}

func TestDispatcher_SetTable(t *testing.T) {
	l := newFakeListener(listenStep{})
	tr := &fakeTranscriber{results: []transcript{{text: "page down"}}}
	d, rec, _ := newTestDispatcher(t, parkedConfig(), l, tr)

	cmds, err := ResolveAliases(d.Table().Commands(), []Alias{{Phrase: "page down", Target: "scroll down"}}, nil, 0)
	require.NoError(t, err)
	table, err := NewCommandTable(MatchAll, cmds...)
	require.NoError(t, err)
	d.SetTable(table)

	require.True(t, d.Start())
	require.Eventually(t, func() bool { return rec.Count("scroll -300") == 1 }, 2*time.Second, 5*time.Millisecond)
}
