package rules

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const reportRule = "=============================="

// ReportAction writes a delimited report block when a rule fires:
//
//	==============================
//	[bad-backlink] found bad backlink
//	backlink: http://some-bad-place.com/...
//	==============================
//
// Each fact in Include is looked up and printed on its own line.
type ReportAction struct {
	Message string
	Include []string
	Out     io.Writer // defaults to os.Stdout
}

// Perform renders the block and writes it in a single call
func (a *ReportAction) Perform(f Firing) error {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "[%s] %s\n", f.Rule, a.Message)
	for _, name := range a.Include {
		v, err := f.Facts.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s: %v\n", name, v)
	}
	b.WriteString(reportRule + "\n")

	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func (a *ReportAction) String() string {
	return "report"
}
