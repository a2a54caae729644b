package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/user/illust-harvester/internal/entity"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var logColors = map[entity.LogState]text.Colors{
	entity.LogSuccess: {text.FgGreen},
	entity.LogWarning: {text.FgYellow},
	entity.LogError:   {text.FgRed},
}

// consolePublisher prints log events as they happen. Download events are
// already announced by a log event and are skipped.
type consolePublisher struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsolePublisher(out io.Writer) *consolePublisher {
	return &consolePublisher{out: out}
}

func (p *consolePublisher) Publish(_ context.Context, _, _ string, payload any) {
	ev, ok := payload.(entity.LogEvent)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, logColors[ev.State].Sprintf("[%s] %s", ev.State, ev.Message))
}
