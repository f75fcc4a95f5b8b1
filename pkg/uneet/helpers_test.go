// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"fmt"
	"sync"
	"testing"

	"github.com/uneet/uneet/pkg/dom"
	"golang.org/x/net/html"
)

type (
	// logEntry is one message captured by recordingLogger.
	logEntry struct {
		level   string
		msg     string
		keyvals []any
	}

	recordingLogger struct {
		mu      sync.Mutex
		entries []logEntry
	}

	// recorder counts factory calls per component name.
	recorder struct {
		calls      map[string]int
		components []Component
	}
)

func (l *recordingLogger) add(level, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) Trace(msg string, kv ...any) { l.add("trace", msg, kv) }
func (l *recordingLogger) Debug(msg string, kv ...any) { l.add("debug", msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...any)  { l.add("info", msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...any)  { l.add("warn", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...any) { l.add("error", msg, kv) }

// find returns the entries at level whose key/value pairs mention value.
func (l *recordingLogger) find(level string, value any) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level != level {
			continue
		}
		for _, kv := range e.keyvals {
			if kv == value {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string]int)}
}

func (r *recorder) factory(name string) Factory {
	return FactoryFunc(func(c Component, _ *Shared) error {
		r.calls[name]++
		r.components = append(r.components, c)
		return nil
	})
}

func (r *recorder) factories(names ...string) Factories {
	f := make(Factories, len(names))
	for _, name := range names {
		f[name] = r.factory(name)
	}
	return f
}

func mustDoc(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func mustPlayground(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseFile("testdata/playground.html")
	if err != nil {
		t.Fatalf("ParseFile(playground) error = %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *dom.Document, id string) *html.Node {
	t.Helper()
	n, err := doc.Resolve("#" + id)
	if err != nil {
		t.Fatalf("Resolve(#%s) error = %v", id, err)
	}
	if n == nil {
		t.Fatalf("no element with id %q", id)
	}
	return n
}

func idOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "id" {
			return a.Val
		}
	}
	return dom.Describe(n)
}

func idsOf(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, idOf(n))
	}
	return out
}

// wrap builds a body fragment document.
func wrap(body string) string {
	return fmt.Sprintf("<!doctype html><html><body>%s</body></html>", body)
}
