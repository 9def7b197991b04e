// Package voice runs spoken command recognition and keyboard dictation
// alongside the primary frame loop.
package voice

import (
	"sync"
	"sync/atomic"
)

// Status messages shown in the overlay.
const (
	StatusActivated      = "Voice commands activated"
	StatusDeactivated    = "Voice commands deactivated"
	StatusCalibrating    = "Adjusting for ambient noise..."
	StatusListening      = "Listening for commands..."
	StatusProcessing     = "Processing command..."
	StatusNotRecognized  = "Command not recognized"
	StatusWaitTimeout    = "Listening..."
	StatusUnintelligible = "Could not understand audio"
	StatusRequestFailed  = "Could not request results"
	StatusTranscribeSlow = "Transcription timed out"
	statusHeardPrefix    = "Heard: "
	statusErrorPrefix    = "Error: "
)

// Session is the state shared between the command listener and the
// primary loop. The primary loop only reads it.
type Session struct {
	mu     sync.RWMutex
	status string

	listening atomic.Bool
	cont      atomic.Bool
}

// Status returns the latest status message.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus replaces the status message.
func (s *Session) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
}

// setIfContinuing replaces the status unless the loop has been told to
// stop, so a late message never hides the deactivation notice.
func (s *Session) setIfContinuing(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cont.Load() {
		s.status = msg
	}
}

// Listening reports whether the command listener is enabled.
func (s *Session) Listening() bool {
	return s.listening.Load()
}

// Continue reports whether the background loop should keep going.
func (s *Session) Continue() bool {
	return s.cont.Load()
}
