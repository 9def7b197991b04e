package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Alias is a user-defined phrase bound either to a builtin phrase (Target)
// or to a plugin action (Plugin and Action).
type Alias struct {
	Phrase string
	Target string
	Plugin string
	Action string
}

// PluginRunner executes a plugin action and returns its output.
type PluginRunner interface {
	RunAction(ctx context.Context, plugin, action, arg string) (string, error)
}

// ResolveAliases appends alias commands to base. Aliases that point at an
// unknown phrase, or at a plugin when runner is nil, are skipped and
// reported in the returned error.
func ResolveAliases(base []Command, aliases []Alias, runner PluginRunner, timeout time.Duration) ([]Command, error) {
	byPhrase := make(map[string]Command, len(base))
	for _, c := range base {
		byPhrase[normalize(c.Phrase)] = c
	}

	out := append([]Command(nil), base...)
	var errs []error
	for _, a := range aliases {
		phrase := normalize(a.Phrase)
		if _, dup := byPhrase[phrase]; dup {
			errs = append(errs, fmt.Errorf("alias %q: phrase already defined", a.Phrase))
			continue
		}

		switch {
		case a.Plugin != "":
			if runner == nil {
				errs = append(errs, fmt.Errorf("alias %q: plugins disabled", a.Phrase))
				continue
			}
			cmd := pluginCommand(phrase, a.Plugin, a.Action, runner, timeout)
			byPhrase[phrase] = cmd
			out = append(out, cmd)

		default:
			target, ok := byPhrase[normalize(a.Target)]
			if !ok || target.Source != "builtin" {
				errs = append(errs, fmt.Errorf("alias %q: unknown command %q", a.Phrase, a.Target))
				continue
			}
			cmd := Command{Phrase: phrase, TakesArg: target.TakesArg, Run: target.Run, Source: "alias"}
			byPhrase[phrase] = cmd
			out = append(out, cmd)
		}
	}
	return out, errors.Join(errs...)
}

func pluginCommand(phrase, plugin, action string, runner PluginRunner, timeout time.Duration) Command {
	return Command{
		Phrase: phrase,
		Source: "plugin",
		Run: func(arg string) string {
			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out, err := runner.RunAction(ctx, plugin, action, arg)
			if err != nil {
				return statusErrorPrefix + err.Error()
			}
			if msg := strings.TrimSpace(out); msg != "" {
				return msg
			}
			return fmt.Sprintf("Ran %s %s", plugin, action)
		},
	}
}
