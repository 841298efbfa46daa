package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Notifier prints short user-facing messages. Info goes to Out, errors to
// Err. Safe for concurrent use.
type Notifier struct {
	Out io.Writer
	Err io.Writer

	mu sync.Mutex
}

// NewNotifier creates a Notifier writing to out and errOut.
func NewNotifier(out, errOut io.Writer) *Notifier {
	return &Notifier{Out: out, Err: errOut}
}

// Info prints an informational message.
func (n *Notifier) Info(msg string) {
	n.print(n.Out, infoPrefixStyle.Render("irename:"), msg)
}

// Error prints an error message.
func (n *Notifier) Error(msg string) {
	n.print(n.Err, errorPrefixStyle.Render("irename error:"), msg)
}

func (n *Notifier) print(w io.Writer, prefix, msg string) {
	if w == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	_, _ = fmt.Fprintf(w, "%s %s\n", prefix, strings.TrimSpace(msg))
}
