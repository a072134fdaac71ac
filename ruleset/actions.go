package ruleset

import (
	"log/slog"

	"github.com/liamcoop/linkrules/rules"
)

// LogAction emits a structured INFO log line when a rule fires
type LogAction struct {
	Message string
	Include []string
	Logger  *slog.Logger
}

// Perform looks up the included facts and logs them as attributes
func (a *LogAction) Perform(f rules.Firing) error {
	args := make([]any, 0, 2+2*len(a.Include))
	args = append(args, "rule", f.Rule)
	for _, name := range a.Include {
		v, err := f.Facts.Lookup(name)
		if err != nil {
			return err
		}
		args = append(args, name, v)
	}

	a.Logger.Info(a.Message, args...)
	return nil
}

func (a *LogAction) String() string {
	return "log"
}
