package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// ErrWaitTimeout is returned by Listen when no speech starts before the timeout.
var ErrWaitTimeout = errors.New("timed out waiting for speech")

// frameDuration is the length of one analysis frame.
const frameDuration = 20 * time.Millisecond

// preRollFrames of audio before speech onset are kept so the first
// syllable is not clipped.
const preRollFrames = 15

// Listener captures single utterances.
type Listener interface {
	// Calibrate measures ambient noise for d and adapts the speech threshold.
	Calibrate(ctx context.Context, d time.Duration) error
	// Listen waits up to timeout for speech to start, then records until
	// trailing silence or phraseLimit.
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (*Clip, error)
}

// Source is an open mono capture stream delivering fixed-size frames.
type Source interface {
	Read(frame []int16) error
	Close() error
}

// OpenFunc opens a capture stream.
type OpenFunc func(sampleRate, frameSize int) (Source, error)

// Microphone is a Listener over the default input device. Calls are
// serialized: only one stream is open on the device at a time.
type Microphone struct {
	mu        sync.Mutex
	rate      int
	frameSize int
	open      OpenFunc
	vad       *VAD
	terminate func() error
	logger    zerolog.Logger
}

// NewMicrophone initializes PortAudio and returns a Microphone on the
// default input device.
func NewMicrophone(sampleRate int, logger zerolog.Logger) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	m := NewMicrophoneFrom(sampleRate, openPortAudio, logger)
	m.terminate = portaudio.Terminate
	return m, nil
}

// NewMicrophoneFrom returns a Microphone reading from streams opened by open.
func NewMicrophoneFrom(sampleRate int, open OpenFunc, logger zerolog.Logger) *Microphone {
	return &Microphone{
		rate:      sampleRate,
		frameSize: int(int64(sampleRate) * int64(frameDuration) / int64(time.Second)),
		open:      open,
		vad:       NewVAD(),
		logger:    logger.With().Str("component", "audio").Logger(),
	}
}

// Close releases PortAudio.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.terminate == nil {
		return nil
	}
	err := m.terminate()
	m.terminate = nil
	return err
}

// Calibrate reads ambient audio for d and sets the VAD thresholds from it.
func (m *Microphone) Calibrate(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.open(m.rate, m.frameSize)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	defer src.Close()

	frames := framesIn(d)
	if frames < 1 {
		frames = 1
	}

	buf := make([]int16, m.frameSize)
	var total float64
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := src.Read(buf); err != nil {
			return fmt.Errorf("read input stream: %w", err)
		}
		total += RMS(buf)
	}

	ambient := total / float64(frames)
	m.vad.Calibrate(ambient)
	m.logger.Debug().
		Float64("ambient", ambient).
		Float64("speech_threshold", m.vad.SpeechThreshold).
		Msg("calibrated")
	return nil
}

// Listen records one utterance. Timeouts are counted in captured audio
// time, so a stalled device only delays the result by ctx.
func (m *Microphone) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (*Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.open(m.rate, m.frameSize)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer src.Close()

	m.vad.Reset()
	waitFrames := framesIn(timeout)
	phraseFrames := framesIn(phraseLimit)

	var preRoll [][]int16
	var samples []int16
	recording := false
	recorded := 0

	for waited := 0; ; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := make([]int16, m.frameSize)
		if err := src.Read(frame); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}
		speech := m.vad.IsSpeech(frame)

		if !recording {
			preRoll = append(preRoll, frame)
			if len(preRoll) > preRollFrames {
				preRoll = preRoll[1:]
			}
			if speech {
				recording = true
				for _, f := range preRoll {
					samples = append(samples, f...)
				}
				recorded = len(preRoll)
				preRoll = nil
				continue
			}
			waited++
			if waited >= waitFrames {
				return nil, ErrWaitTimeout
			}
			continue
		}

		samples = append(samples, frame...)
		recorded++
		if !speech || (phraseFrames > 0 && recorded >= phraseFrames) {
			break
		}
	}

	return &Clip{Samples: samples, SampleRate: m.rate, Channels: 1}, nil
}

func framesIn(d time.Duration) int {
	return int(d / frameDuration)
}

// paSource reads from a PortAudio blocking stream.
type paSource struct {
	stream *portaudio.Stream
	buf    []int16
}

func openPortAudio(sampleRate, frameSize int) (Source, error) {
	buf := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	return &paSource{stream: stream, buf: buf}, nil
}

func (s *paSource) Read(frame []int16) error {
	if err := s.stream.Read(); err != nil {
		return err
	}
	copy(frame, s.buf)
	return nil
}

func (s *paSource) Close() error {
	s.stream.Stop()
	return s.stream.Close()
}
