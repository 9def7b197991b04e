package voice

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/mode"
)

// Builtin phrases referenced outside the table.
const (
	PhraseSearch         = "search for"
	PhraseSwitchMouse    = "switch to mouse"
	PhraseSwitchKeyboard = "switch to keyboard"
)

const (
	scrollAmount  = 300
	volumeTaps    = 3
	homePage      = "https://www.google.com"
	searchBaseURL = "https://www.google.com/search?q="
)

// ModeRequester queues a mode change for the primary loop.
type ModeRequester interface {
	Request(to mode.Mode, source string) bool
}

// Deps are the collaborators of the builtin commands.
type Deps struct {
	Input         input.Injector
	Modes         ModeRequester
	ScreenshotDir string
	GOOS          string
	Now           func() time.Time
}

// Builtins returns the builtin commands in table order.
func Builtins(deps Deps) []Command {
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	in := deps.Input

	cmds := []Command{
		{Phrase: "scroll up", Run: func(string) string {
			in.Scroll(scrollAmount)
			return "Scrolled up"
		}},
		{Phrase: "scroll down", Run: func(string) string {
			in.Scroll(-scrollAmount)
			return "Scrolled down"
		}},
		{Phrase: "volume up", Run: func(string) string {
			for i := 0; i < volumeTaps; i++ {
				in.VolumeUp()
			}
			return "Volume increased"
		}},
		{Phrase: "volume down", Run: func(string) string {
			for i := 0; i < volumeTaps; i++ {
				in.VolumeDown()
			}
			return "Volume decreased"
		}},
		{Phrase: "mute", Run: func(string) string {
			in.Mute()
			return "Audio muted/unmuted"
		}},
		{Phrase: "screenshot", Run: func(string) string {
			name := fmt.Sprintf("screenshot_%d.png", deps.Now().Unix())
			in.Screenshot(filepath.Join(deps.ScreenshotDir, name))
			return "Screenshot saved"
		}},
		{Phrase: "open browser", Run: func(string) string {
			in.OpenURL(homePage)
			return "Browser opened"
		}},
		{Phrase: "open notepad", Run: func(string) string {
			c := input.NotepadCommand(deps.GOOS)
			in.Launch(c.Name, c.Args...)
			return "Notepad opened"
		}},
		{Phrase: "close window", Run: func(string) string {
			in.Hotkey(input.CloseWindowKeys(deps.GOOS)...)
			return "Window closed"
		}},
		{Phrase: PhraseSearch, TakesArg: true, Run: func(query string) string {
			in.OpenURL(SearchURL(query))
			return "Searching for: " + query
		}},
		{Phrase: "go back", Run: func(string) string {
			in.Hotkey("alt", "left")
			return "Navigated back"
		}},
		{Phrase: "refresh page", Run: func(string) string {
			in.Tap("f5")
			return "Page refreshed"
		}},
		{Phrase: PhraseSwitchMouse, Run: func(string) string {
			requestMode(deps.Modes, mode.Mouse)
			return "Switching to mouse mode"
		}},
		{Phrase: PhraseSwitchKeyboard, Run: func(string) string {
			requestMode(deps.Modes, mode.Keyboard)
			return "Switching to keyboard mode"
		}},
		{Phrase: "lock computer", Run: func(string) string {
			in.Lock()
			return "Computer locked"
		}},
		{Phrase: "sleep computer", Run: func(string) string {
			in.Sleep()
			return "Computer sleeping"
		}},
	}

	for i := range cmds {
		cmds[i].Source = "builtin"
	}
	return cmds
}

// SearchURL builds a web search URL with spaces joined by '+'.
func SearchURL(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	return searchBaseURL + strings.Join(words, "+")
}

func requestMode(modes ModeRequester, to mode.Mode) {
	if modes != nil {
		modes.Request(to, "voice")
	}
}
