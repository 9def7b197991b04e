package audio

import "math"

// Default VAD thresholds as RMS of full scale, tuned for 20 ms frames.
const (
	DefaultSpeechThreshold  = 0.015
	DefaultSilenceThreshold = 0.008
)

// VAD is an energy-based voice activity detector with hysteresis: speech
// starts after SpeechFrames loud frames and ends after SilenceFrames quiet ones.
type VAD struct {
	SpeechThreshold  float64
	SilenceThreshold float64
	SpeechFrames     int
	SilenceFrames    int

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// NewVAD returns a VAD with default thresholds (about 60 ms to start,
// 600 ms of silence to end).
func NewVAD() *VAD {
	return &VAD{
		SpeechThreshold:  DefaultSpeechThreshold,
		SilenceThreshold: DefaultSilenceThreshold,
		SpeechFrames:     3,
		SilenceFrames:    30,
	}
}

// Calibrate raises the thresholds above a measured ambient level.
// Thresholds never drop below the defaults.
func (v *VAD) Calibrate(ambient float64) {
	v.SpeechThreshold = math.Max(DefaultSpeechThreshold, ambient*3)
	v.SilenceThreshold = math.Max(DefaultSilenceThreshold, ambient*1.5)
	v.Reset()
}

// IsSpeech feeds one frame and reports whether speech is in progress.
func (v *VAD) IsSpeech(pcm []int16) bool {
	level := RMS(pcm)

	if v.inSpeech {
		if level < v.SilenceThreshold {
			v.silenceCount++
			if v.silenceCount >= v.SilenceFrames {
				v.inSpeech = false
				v.silenceCount = 0
			}
		} else {
			v.silenceCount = 0
		}
		return v.inSpeech
	}

	if level >= v.SpeechThreshold {
		v.speechCount++
		if v.speechCount >= v.SpeechFrames {
			v.inSpeech = true
			v.speechCount = 0
		}
	} else {
		v.speechCount = 0
	}
	return v.inSpeech
}

// Reset clears the detector state, keeping thresholds.
func (v *VAD) Reset() {
	v.inSpeech = false
	v.speechCount = 0
	v.silenceCount = 0
}

// RMS returns the root mean square of pcm as a fraction of full scale.
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
