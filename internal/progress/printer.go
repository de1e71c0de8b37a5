package progress

import (
	"fmt"
	"io"
	"sync"
)

// Printer writes one line per stage change, for non-interactive output.
// Percent-only updates are dropped.
type Printer struct {
	W      io.Writer
	Labels map[string]string // job ID to display label

	mu   sync.Mutex
	last map[string]string
}

func (p *Printer) Update(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		p.last = map[string]string{}
	}
	key := string(u.Stage) + "|" + u.Message
	if p.last[u.JobID] == key {
		return
	}
	p.last[u.JobID] = key
	fmt.Fprintf(p.W, "[%s] %s: %s\n", p.label(u.JobID), u.Stage, u.Message)
}

func (p *Printer) Log(Log) {}

func (p *Printer) Result(r Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.Err != nil {
		fmt.Fprintf(p.W, "[%s] failed: %v\n", p.label(r.JobID), r.Err)
		return
	}
	fmt.Fprintf(p.W, "[%s] saved %s\n", p.label(r.JobID), r.OutputPath)
}

func (p *Printer) label(id string) string {
	if l, ok := p.Labels[id]; ok {
		return l
	}
	return id
}
