// Package input injects simulated pointer, keyboard and OS actions.
//
// Every action is fire-and-forget: implementations log failures instead of
// returning them, so gesture and voice handlers never branch on injector errors.
package input

// Button is a mouse button.
type Button int

const (
	// Left is the primary mouse button.
	Left Button = iota
	// Right is the secondary mouse button.
	Right
)

// String returns the button name understood by robotgo.
func (b Button) String() string {
	if b == Right {
		return "right"
	}
	return "left"
}

// Injector executes simulated input and OS actions.
type Injector interface {
	MoveTo(x, y int)
	Click(b Button)
	// Tap presses and releases key while holding modifiers.
	Tap(key string, modifiers ...string)
	// Hotkey taps the last key while holding all the others.
	Hotkey(keys ...string)
	Type(text string)
	// Paste places text on the clipboard and pastes it into the focused window.
	Paste(text string)
	Scroll(amount int)
	VolumeUp()
	VolumeDown()
	Mute()
	Launch(name string, args ...string)
	OpenURL(url string)
	Screenshot(path string)
	Lock()
	Sleep()
	Notify(title, message string)
	ScreenSize() (int, int)
}
