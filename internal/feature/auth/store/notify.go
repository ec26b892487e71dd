package store

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// WriterNotifier prints toasts as lines on w.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) { n.print("✔", msg) }

func (n *WriterNotifier) Error(msg string) { n.print("✖", msg) }

func (n *WriterNotifier) print(mark, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s\n", mark, msg)
}

// LogNotifier sends toasts to a slog logger, for headless use.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Success(msg string) { n.logger().Info("toast", "kind", "success", "message", msg) }

func (n LogNotifier) Error(msg string) { n.logger().Warn("toast", "kind", "error", "message", msg) }

var (
	_ Notifier = (*WriterNotifier)(nil)
	_ Notifier = LogNotifier{}
)
