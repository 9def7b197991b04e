package input

// Command is a program and its arguments.
type Command struct {
	Name string
	Args []string
}

// LockCommand returns the screen lock command for goos.
func LockCommand(goos string) Command {
	switch goos {
	case "windows":
		return Command{Name: "rundll32.exe", Args: []string{"user32.dll,LockWorkStation"}}
	case "darwin":
		return Command{Name: "pmset", Args: []string{"displaysleepnow"}}
	default:
		return Command{Name: "gnome-screensaver-command", Args: []string{"--lock"}}
	}
}

// SleepCommand returns the system suspend command for goos.
func SleepCommand(goos string) Command {
	switch goos {
	case "windows":
		return Command{Name: "rundll32.exe", Args: []string{"powrprof.dll,SetSuspendState", "0,1,0"}}
	case "darwin":
		return Command{Name: "pmset", Args: []string{"sleepnow"}}
	default:
		return Command{Name: "systemctl", Args: []string{"suspend"}}
	}
}

// NotepadCommand returns the plain text editor for goos.
func NotepadCommand(goos string) Command {
	switch goos {
	case "windows":
		return Command{Name: "notepad.exe"}
	case "darwin":
		return Command{Name: "open", Args: []string{"-a", "TextEdit"}}
	default:
		return Command{Name: "gedit"}
	}
}

// CloseWindowKeys returns the close-window shortcut for goos, modifiers first.
func CloseWindowKeys(goos string) []string {
	if goos == "windows" {
		return []string{"alt", "f4"}
	}
	return []string{"cmd", "w"}
}

// PasteModifier returns the modifier used with "v" to paste on goos.
func PasteModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
