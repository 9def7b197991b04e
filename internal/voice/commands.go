package voice

import (
	"fmt"
	"strings"
)

// Action performs a command and returns the status message to show.
// arg is empty for commands that take no argument.
type Action func(arg string) string

// Command binds a trigger phrase to an action.
type Command struct {
	Phrase   string
	TakesArg bool
	Run      Action
	Source   string // builtin, alias or plugin
}

// MatchPolicy decides which commands run when an utterance contains
// several trigger phrases.
type MatchPolicy string

const (
	// MatchAll runs every matching command in table order.
	MatchAll MatchPolicy = "all"
	// MatchFirst runs the first matching command in table order.
	MatchFirst MatchPolicy = "first"
	// MatchLongest runs the matching command with the longest phrase.
	MatchLongest MatchPolicy = "longest"
)

// ParseMatchPolicy validates a policy name. Empty means MatchAll.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MatchAll, nil
	case MatchAll, MatchFirst, MatchLongest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown match policy %q", s)
	}
}

// Match is a command selected for an utterance.
type Match struct {
	Command Command
	Arg     string
}

// CommandTable is an ordered, immutable set of commands.
type CommandTable struct {
	policy   MatchPolicy
	commands []Command
}

// NewCommandTable builds a table. Phrases are matched lower-case; empty
// phrases, missing actions and duplicate phrases are rejected.
func NewCommandTable(policy MatchPolicy, commands ...Command) (*CommandTable, error) {
	if _, err := ParseMatchPolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = MatchAll
	}

	seen := make(map[string]bool, len(commands))
	table := &CommandTable{policy: policy, commands: make([]Command, 0, len(commands))}
	for _, c := range commands {
		c.Phrase = normalize(c.Phrase)
		if c.Phrase == "" {
			return nil, fmt.Errorf("command with empty phrase")
		}
		if c.Run == nil {
			return nil, fmt.Errorf("command %q has no action", c.Phrase)
		}
		if seen[c.Phrase] {
			return nil, fmt.Errorf("duplicate command phrase %q", c.Phrase)
		}
		seen[c.Phrase] = true
		table.commands = append(table.commands, c)
	}
	return table, nil
}

// Policy returns the table's match policy.
func (t *CommandTable) Policy() MatchPolicy {
	return t.policy
}

// Commands returns a copy of the commands in table order.
func (t *CommandTable) Commands() []Command {
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// Lookup finds a command by exact phrase.
func (t *CommandTable) Lookup(phrase string) (Command, bool) {
	phrase = normalize(phrase)
	for _, c := range t.commands {
		if c.Phrase == phrase {
			return c, true
		}
	}
	return Command{}, false
}

// Match returns the commands whose phrase occurs in text, filtered by the
// table's policy. Commands taking an argument receive the trimmed text
// after their phrase and are skipped when it is empty.
func (t *CommandTable) Match(text string) []Match {
	text = normalize(text)
	if text == "" {
		return nil
	}

	var matches []Match
	for _, c := range t.commands {
		idx := strings.Index(text, c.Phrase)
		if idx < 0 {
			continue
		}

		m := Match{Command: c}
		if c.TakesArg {
			m.Arg = strings.TrimSpace(text[idx+len(c.Phrase):])
			if m.Arg == "" {
				continue
			}
		}

		if t.policy == MatchFirst {
			return []Match{m}
		}
		matches = append(matches, m)
	}

	if t.policy == MatchLongest && len(matches) > 1 {
		best := matches[0]
		for _, m := range matches[1:] {
			if len(m.Command.Phrase) > len(best.Command.Phrase) {
				best = m
			}
		}
		return []Match{best}
	}
	return matches
}

// normalize lower-cases text, collapses whitespace and drops the trailing
// punctuation transcription services add to sentences.
func normalize(text string) string {
	text = strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return strings.TrimRight(text, ".!?,;")
}
