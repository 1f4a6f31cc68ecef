// Package logger holds the process-wide logrus logger.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root = newRoot()
	mu   sync.RWMutex
)

type ctxKey int

const scanIDKey ctxKey = 0

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init configures level and output. An unknown level falls back to info.
func Init(level string, debug bool, out io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		root.SetOutput(out)
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		root.WithField("configured", level).Warn("invalid log level, using info")
		lvl = logrus.InfoLevel
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	root.SetLevel(lvl)
}

func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Component returns an entry tagged with the emitting subsystem.
func Component(name string) *logrus.Entry {
	return L().WithField("component", name)
}

// WithScanID attaches a scan id that FromContext adds to every entry.
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scanIDKey, id)
}

func ScanID(ctx context.Context) string {
	if id, ok := ctx.Value(scanIDKey).(string); ok {
		return id
	}
	return ""
}

func NewScanID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "0"
	}
	return hex.EncodeToString(b)
}

// FromContext returns a component entry carrying the scan id, if any.
func FromContext(ctx context.Context, component string) *logrus.Entry {
	e := Component(component)
	if id := ScanID(ctx); id != "" {
		e = e.WithField("scan", id)
	}
	return e
}
