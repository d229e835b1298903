package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// writeEvents prints one line per trace event: the kind, then its fields
// in key order.
func writeEvents(w io.Writer, indent string, events []engine.TraceEvent) {
	for _, ev := range events {
		fmt.Fprintf(w, "%s%s%s\n", indent, ev.Kind, formatFields(ev.Fields))
	}
}

func formatFields(fields ir.Object) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		v, err := ir.MarshalCanonical(fields[k])
		if err != nil {
			v = []byte("?")
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

func formatOutcome(o engine.Outcome) string {
	switch {
	case o.Winner != nil:
		return fmt.Sprintf("%s, winner player %d", o.Kind, *o.Winner)
	case len(o.Scores) > 0:
		return fmt.Sprintf("%s, scores %v", o.Kind, o.Scores)
	default:
		return o.Kind
	}
}
