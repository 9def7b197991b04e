package app

import (
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
)

// TextBuffer is the text typed on the virtual keyboard. Key presses are
// mirrored into the focused window through the injector.
type TextBuffer struct {
	input input.Injector

	mu   sync.RWMutex
	text []rune
	caps bool
}

// NewTextBuffer creates an empty buffer with caps off.
func NewTextBuffer(in input.Injector) *TextBuffer {
	return &TextBuffer{input: in}
}

// Press applies an editing or character key. MIC and CMD are not handled here.
func (b *TextBuffer) Press(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch label {
	case gesture.KeySpace:
		b.text = append(b.text, ' ')
		b.input.Tap("space")
	case gesture.KeyBackspace:
		if len(b.text) == 0 {
			return
		}
		b.text = b.text[:len(b.text)-1]
		b.input.Tap("backspace")
	case gesture.KeyCaps:
		b.caps = !b.caps
	case gesture.KeyClear:
		b.text = b.text[:0]
	case gesture.KeyMic, gesture.KeyCommands:
	default:
		letter := strings.ToLower(label)
		if b.caps {
			letter = strings.ToUpper(label)
		}
		b.text = append(b.text, []rune(letter)...)
		b.input.Type(letter)
	}
}

// AppendDictation adds dictated text after a space. When paste is set the
// same text goes to the focused window.
func (b *TextBuffer) AppendDictation(text string, paste bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	chunk := " " + text

	b.mu.Lock()
	b.text = append(b.text, []rune(chunk)...)
	b.mu.Unlock()

	if paste {
		b.input.Paste(chunk)
	}
}

// String returns the whole buffer.
func (b *TextBuffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// Tail returns at most the last n characters.
func (b *TextBuffer) Tail(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.text) <= n {
		return string(b.text)
	}
	return string(b.text[len(b.text)-n:])
}

// Len returns the number of characters in the buffer.
func (b *TextBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// Caps reports whether letters are typed upper-case.
func (b *TextBuffer) Caps() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.caps
}
