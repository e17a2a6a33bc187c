package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/walteh/rstls/pkg/debug"
)

// LSPWriter is an io.Writer for zerolog JSON output. Once a client is
// attached, each entry is forwarded as a window/logMessage notification;
// before that it goes to the fallback writer.
type LSPWriter struct {
	mu       sync.Mutex
	notify   glsp.NotifyFunc
	fallback io.Writer
}

func NewLSPWriter(fallback io.Writer) *LSPWriter {
	if fallback == nil {
		fallback = io.Discard
	}
	return &LSPWriter{fallback: fallback}
}

// Attach starts forwarding to the client.
func (w *LSPWriter) Attach(notify glsp.NotifyFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notify = notify
}

// ApplyLSPWriter returns ctx carrying a logger that writes through w.
func ApplyLSPWriter(ctx context.Context, w *LSPWriter, level zerolog.Level) context.Context {
	return zerolog.New(w).
		Level(level).
		Hook(debug.CustomTimeHook{WithColor: false}).
		Hook(debug.CustomCallerHook{WithColor: false}).
		WithContext(ctx)
}

func (w *LSPWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.notify == nil {
		return w.fallback.Write(p)
	}

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil // skip malformed entries
	}

	w.notify(methodLogMessage, protocol.LogMessageParams{
		Type:    messageType(entry[zerolog.LevelFieldName]),
		Message: formatEntry(entry),
	})
	return len(p), nil
}

func messageType(level any) protocol.MessageType {
	lvl, _ := level.(string)
	switch lvl {
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return protocol.MessageTypeError
	case zerolog.LevelWarnValue:
		return protocol.MessageTypeWarning
	case zerolog.LevelInfoValue:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}

// formatEntry renders "message key=value ..." with the remaining fields
// sorted by key. Time and level are carried by the notification itself.
func formatEntry(entry map[string]any) string {
	msg, _ := entry[zerolog.MessageFieldName].(string)
	for _, k := range []string{zerolog.MessageFieldName, zerolog.LevelFieldName, zerolog.TimestampFieldName} {
		delete(entry, k)
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry[k])
	}
	return b.String()
}
