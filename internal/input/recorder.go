package input

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder is an Injector that records calls instead of performing them.
type Recorder struct {
	mu     sync.Mutex
	calls  []string
	width  int
	height int
}

// NewRecorder creates a Recorder reporting the given screen size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many recorded calls start with prefix.
func (r *Recorder) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) MoveTo(x, y int) { r.record("move %d,%d", x, y) }
func (r *Recorder) Click(b Button)  { r.record("click %s", b) }

func (r *Recorder) Tap(key string, modifiers ...string) {
	if len(modifiers) == 0 {
		r.record("tap %s", key)
		return
	}
	r.record("tap %s+%s", strings.Join(modifiers, "+"), key)
}

func (r *Recorder) Hotkey(keys ...string) { r.record("hotkey %s", strings.Join(keys, "+")) }
func (r *Recorder) Type(text string)      { r.record("type %s", text) }
func (r *Recorder) Paste(text string)     { r.record("paste %s", text) }
func (r *Recorder) Scroll(amount int)     { r.record("scroll %d", amount) }
func (r *Recorder) VolumeUp()             { r.record("volume up") }
func (r *Recorder) VolumeDown()           { r.record("volume down") }
func (r *Recorder) Mute()                 { r.record("mute") }

func (r *Recorder) Launch(name string, args ...string) {
	r.record("launch %s", strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

func (r *Recorder) OpenURL(url string)           { r.record("url %s", url) }
func (r *Recorder) Screenshot(path string)       { r.record("screenshot %s", path) }
func (r *Recorder) Lock()                        { r.record("lock") }
func (r *Recorder) Sleep()                       { r.record("sleep") }
func (r *Recorder) Notify(title, message string) { r.record("notify %s: %s", title, message) }
func (r *Recorder) ScreenSize() (int, int)       { return r.width, r.height }
