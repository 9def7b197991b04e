package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

// scriptSource plays a list of frame amplitudes, then silence.
type scriptSource struct {
	mu     sync.Mutex
	levels []int16
	pos    int
	err    error
	closed bool
}

func (s *scriptSource) Read(frame []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	var amp int16
	if s.pos < len(s.levels) {
		amp = s.levels[s.pos]
	}
	s.pos++
	for i := range frame {
		if i%2 == 0 {
			frame[i] = amp
		} else {
			frame[i] = -amp
		}
	}
	return nil
}

func (s *scriptSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func repeat(amp int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = amp
	}
	return out
}

func newTestMic(src *scriptSource) (*Microphone, *int) {
	opens := 0
	open := func(rate, frameSize int) (Source, error) {
		opens++
		src.pos = 0
		return src, nil
	}
	return NewMicrophoneFrom(testRate, open, zerolog.Nop()), &opens
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 0.0, RMS(repeat(0, 100)), 1e-12)
	assert.InDelta(t, 0.5, RMS(repeat(16384, 100)), 1e-9)
	assert.InDelta(t, 0.5, RMS([]int16{16384, -16384}), 1e-9)
}

func TestVAD_Hysteresis(t *testing.T) {
	v := NewVAD()
	loud := repeat(3000, 320) // ~0.09
	quiet := repeat(100, 320) // ~0.003

	assert.False(t, v.IsSpeech(loud))
	assert.False(t, v.IsSpeech(loud))
	assert.True(t, v.IsSpeech(loud), "third loud frame starts speech")

	for i := 0; i < 29; i++ {
		assert.True(t, v.IsSpeech(quiet), "short pause keeps speech, frame %d", i)
	}
	assert.False(t, v.IsSpeech(quiet), "30 quiet frames end speech")
}

func TestVAD_Calibrate(t *testing.T) {
	v := NewVAD()

	v.Calibrate(0.001)
	assert.InDelta(t, DefaultSpeechThreshold, v.SpeechThreshold, 1e-12)

	v.Calibrate(0.02)
	assert.InDelta(t, 0.06, v.SpeechThreshold, 1e-12)
	assert.InDelta(t, 0.03, v.SilenceThreshold, 1e-12)
}

func TestMicrophone_ListenRecordsUtterance(t *testing.T) {
	var levels []int16
	levels = append(levels, repeat(0, 10)...)
	levels = append(levels, repeat(5000, 40)...)
	src := &scriptSource{levels: levels}
	mic, _ := newTestMic(src)

	clip, err := mic.Listen(context.Background(), 5*time.Second, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, clip)

	assert.Equal(t, testRate, clip.SampleRate)
	assert.Equal(t, 1, clip.Channels)
	// 40 speech frames, the pre-roll before onset and 30 trailing silent frames.
	assert.Greater(t, clip.Duration(), 800*time.Millisecond)
	assert.Less(t, clip.Duration(), 2*time.Second)
	assert.True(t, src.closed)
}

func TestMicrophone_ListenWaitTimeout(t *testing.T) {
	src := &scriptSource{}
	mic, _ := newTestMic(src)

	_, err := mic.Listen(context.Background(), time.Second, 5*time.Second)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, 50, src.pos, "one second of 20ms frames")
}

func TestMicrophone_ListenPhraseLimit(t *testing.T) {
	src := &scriptSource{levels: repeat(5000, 1000)}
	mic, _ := newTestMic(src)

	clip, err := mic.Listen(context.Background(), time.Second, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, clip.Duration())
}

func TestMicrophone_ListenCanceled(t *testing.T) {
	src := &scriptSource{}
	mic, _ := newTestMic(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mic.Listen(ctx, time.Second, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMicrophone_ReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	src := &scriptSource{err: boom}
	mic, _ := newTestMic(src)

	_, err := mic.Listen(context.Background(), time.Second, time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestMicrophone_Calibrate(t *testing.T) {
	src := &scriptSource{levels: repeat(2000, 100)}
	mic, opens := newTestMic(src)

	require.NoError(t, mic.Calibrate(context.Background(), time.Second))
	assert.Equal(t, 1, *opens)
	assert.Greater(t, mic.vad.SpeechThreshold, DefaultSpeechThreshold)
}

func TestClip_WAV(t *testing.T) {
	clip := &Clip{Samples: repeat(1000, 1600), SampleRate: testRate, Channels: 1}
	assert.Equal(t, 100*time.Millisecond, clip.Duration())

	data, err := clip.WAV()
	require.NoError(t, err)

	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, uint32(testRate), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, 44+1600*2, len(data))
}

func TestClip_DurationEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), (&Clip{}).Duration())
}
