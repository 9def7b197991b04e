package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/mode"
)

func newBuiltinTable(t *testing.T, policy MatchPolicy) (*CommandTable, *input.Recorder, *mode.Machine) {
	t.Helper()
	rec := input.NewRecorder(1920, 1080)
	modes := mode.New(mode.Mouse)
	cmds := Builtins(Deps{
		Input:         rec,
		Modes:         modes,
		ScreenshotDir: "/home/test/Pictures",
		GOOS:          "linux",
		Now:           func() time.Time { return time.Unix(1700000000, 0) },
	})
	table, err := NewCommandTable(policy, cmds...)
	require.NoError(t, err)
	return table, rec, modes
}

func phrases(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Command.Phrase
	}
	return out
}

func TestMatch_SearchArgument(t *testing.T) {
	table, rec, _ := newBuiltinTable(t, MatchAll)

	matches := table.Match("search for quantum computing")
	require.Len(t, matches, 1)
	assert.Equal(t, PhraseSearch, matches[0].Command.Phrase)
	assert.Equal(t, "quantum computing", matches[0].Arg)

	status := matches[0].Command.Run(matches[0].Arg)
	assert.Equal(t, "Searching for: quantum computing", status)
	assert.Equal(t, []string{"url https://www.google.com/search?q=quantum+computing"}, rec.Calls())
}

func TestMatch_SearchWithoutQueryIsSkipped(t *testing.T) {
	table, _, _ := newBuiltinTable(t, MatchAll)

	assert.Empty(t, table.Match("search for"))
	assert.Empty(t, table.Match("please search for   "))
}

func TestMatch_MultiplePhrases(t *testing.T) {
	tests := []struct {
		policy MatchPolicy
		want   []string
	}{
		{policy: MatchAll, want: []string{"scroll down", "mute"}},
		{policy: MatchFirst, want: []string{"scroll down"}},
		{policy: MatchLongest, want: []string{"scroll down"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			table, _, _ := newBuiltinTable(t, tt.policy)
			got := table.Match("mute and then scroll down")
			assert.Equal(t, tt.want, phrases(got))
		})
	}
}

func TestMatch_NormalizesTranscript(t *testing.T) {
	table, _, _ := newBuiltinTable(t, MatchAll)

	assert.Equal(t, []string{"scroll up"}, phrases(table.Match("  Scroll   UP. ")))
	assert.Equal(t, []string{"refresh page"}, phrases(table.Match("Refresh page!")))
	assert.Empty(t, table.Match("hello there"))
	assert.Empty(t, table.Match(""))
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		text   string
		status string
		calls  []string
		mode   mode.Mode
	}{
		{text: "scroll up", status: "Scrolled up", calls: []string{"scroll 300"}},
		{text: "scroll down", status: "Scrolled down", calls: []string{"scroll -300"}},
		{text: "volume up", status: "Volume increased", calls: []string{"volume up", "volume up", "volume up"}},
		{text: "volume down", status: "Volume decreased", calls: []string{"volume down", "volume down", "volume down"}},
		{text: "mute", status: "Audio muted/unmuted", calls: []string{"mute"}},
		{text: "screenshot", status: "Screenshot saved", calls: []string{"screenshot /home/test/Pictures/screenshot_1700000000.png"}},
		{text: "open browser", status: "Browser opened", calls: []string{"url https://www.google.com"}},
		{text: "open notepad", status: "Notepad opened", calls: []string{"launch gedit"}},
		{text: "close window", status: "Window closed", calls: []string{"hotkey cmd+w"}},
		{text: "go back", status: "Navigated back", calls: []string{"hotkey alt+left"}},
		{text: "refresh page", status: "Page refreshed", calls: []string{"tap f5"}},
		{text: "lock computer", status: "Computer locked", calls: []string{"lock"}},
		{text: "sleep computer", status: "Computer sleeping", calls: []string{"sleep"}},
		{text: "switch to keyboard", status: "Switching to keyboard mode", mode: mode.Keyboard},
		{text: "switch to mouse", status: "Switching to mouse mode", mode: mode.Mouse},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			table, rec, modes := newBuiltinTable(t, MatchAll)

			matches := table.Match(tt.text)
			require.Len(t, matches, 1)
			assert.Equal(t, tt.status, matches[0].Command.Run(matches[0].Arg))

			if tt.calls == nil {
				assert.Empty(t, rec.Calls())
				req, ok := modes.Poll()
				require.True(t, ok, "mode request queued")
				assert.Equal(t, tt.mode, req.To)
				assert.Equal(t, "voice", req.Source)
				assert.Equal(t, mode.Mouse, modes.Current(), "voice never transitions directly")
				return
			}
			assert.Equal(t, tt.calls, rec.Calls())
		})
	}
}

func TestBuiltins_Order(t *testing.T) {
	cmds := Builtins(Deps{Input: input.NewRecorder(0, 0)})
	require.Len(t, cmds, 16)
	assert.Equal(t, "scroll up", cmds[0].Phrase)
	assert.Equal(t, PhraseSearch, cmds[9].Phrase)
	assert.True(t, cmds[9].TakesArg)
	assert.Equal(t, "sleep computer", cmds[15].Phrase)
	for _, c := range cmds {
		assert.Equal(t, "builtin", c.Source)
	}
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=go+channels", SearchURL("go channels"))
	assert.Equal(t, "https://www.google.com/search?q=c%2B%2B+tips", SearchURL("c++  tips"))
}

func TestNewCommandTable_Rejects(t *testing.T) {
	noop := func(string) string { return "" }

	_, err := NewCommandTable(MatchAll, Command{Phrase: "", Run: noop})
	assert.Error(t, err)

	_, err = NewCommandTable(MatchAll, Command{Phrase: "jump"})
	assert.Error(t, err)

	_, err = NewCommandTable(MatchAll, Command{Phrase: "jump", Run: noop}, Command{Phrase: "Jump", Run: noop})
	assert.Error(t, err)

	_, err = NewCommandTable("random", Command{Phrase: "jump", Run: noop})
	assert.Error(t, err)
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, p)

	p, err = ParseMatchPolicy("Longest")
	require.NoError(t, err)
	assert.Equal(t, MatchLongest, p)

	_, err = ParseMatchPolicy("priority")
	assert.Error(t, err)
}

type fakeRunner struct {
	plugin, action, arg string
	out                 string
	err                 error
}

func (f *fakeRunner) RunAction(ctx context.Context, plugin, action, arg string) (string, error) {
	f.plugin, f.action, f.arg = plugin, action, arg
	return f.out, f.err
}

func TestResolveAliases(t *testing.T) {
	rec := input.NewRecorder(0, 0)
	base := Builtins(Deps{Input: rec, GOOS: "linux"})
	runner := &fakeRunner{out: "Playing\n"}

	cmds, err := ResolveAliases(base, []Alias{
		{Phrase: "page down", Target: "scroll down"},
		{Phrase: "look up", Target: "search for"},
		{Phrase: "next track", Plugin: "media-control", Action: "next"},
		{Phrase: "fly away", Target: "teleport"},
		{Phrase: "mute", Target: "volume down"},
	}, runner, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
	assert.Contains(t, err.Error(), "already defined")
	require.Len(t, cmds, len(base)+3)

	table, err := NewCommandTable(MatchAll, cmds...)
	require.NoError(t, err)

	m := table.Match("page down")
	require.Len(t, m, 1)
	assert.Equal(t, "alias", m[0].Command.Source)
	assert.Equal(t, "Scrolled down", m[0].Command.Run(m[0].Arg))
	assert.Equal(t, []string{"scroll -300"}, rec.Calls())

	m = table.Match("look up gophers")
	require.Len(t, m, 1)
	assert.Equal(t, "gophers", m[0].Arg)

	m = table.Match("next track please")
	require.Len(t, m, 1)
	assert.Equal(t, "Playing", m[0].Command.Run(m[0].Arg))
	assert.Equal(t, "media-control", runner.plugin)
	assert.Equal(t, "next", runner.action)

	runner.err = errors.New("plugin exited 1")
	assert.Equal(t, "Error: plugin exited 1", m[0].Command.Run(""))
}

func TestResolveAliases_PluginsDisabled(t *testing.T) {
	base := Builtins(Deps{Input: input.NewRecorder(0, 0)})

	cmds, err := ResolveAliases(base, []Alias{{Phrase: "next track", Plugin: "media-control", Action: "next"}}, nil, 0)
	assert.Error(t, err)
	assert.Len(t, cmds, len(base))
}
