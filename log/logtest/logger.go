/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-actionserver/log"
)

// LoggerOpts configures the logger created by NewLoggerWithOpts.
type LoggerOpts struct {
	// Output is where JSON lines are written. Defaults to os.Stderr.
	Output io.Writer
}

// NewLogger returns a debug-level logger that writes JSON lines to stderr.
// Every entry is encoded and written synchronously, it's too slow for anything except tests.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOpts(LoggerOpts{})
}

// NewLoggerWithOpts returns a debug-level logger that writes JSON lines to opts.Output.
func NewLoggerWithOpts(opts LoggerOpts) log.FieldLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	w := &syncJSONWriter{
		out: out,
		enc: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			FieldKeyTime: "time",
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
		}),
	}
	return &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, w)}
}

type syncJSONWriter struct {
	mu  sync.Mutex
	out io.Writer
	enc logf.Encoder
}

//nolint:gocritic // logf.EntryWriter passes entries by value
func (w *syncJSONWriter) WriteEntry(e logf.Entry) {
	var buf logf.Buffer
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(&buf, e); err != nil {
		_, _ = io.WriteString(w.out, err.Error()+"\n")
		return
	}
	data := buf.Data
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, _ = w.out.Write(data)
}
