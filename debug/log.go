package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stderr
)

// SetOutput redirects trace output, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// Logf writes a trace line. Maps and slices are rendered as indented JSON
// and fmt.Stringer arguments by their String method.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch x := a.(type) {
		case map[string]any, []any, json.Number:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case fmt.Stringer:
			args[i] = x.String()
		case bool, string, float64, int:

		default:
		}
	}
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, msg, args...)
}
