package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressPrinter shows a one-line completion counter while collectors run.
type progressPrinter struct {
	w        io.Writer
	total    int
	name     string
	mu       sync.Mutex
	ok       int
	fail     int
	duration float64
	last     string
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(w io.Writer, total int, name string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		w:       w,
		total:   total,
		name:    name,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Done matches checker.DoneFunc.
func (p *progressPrinter) Done(collector string, ok bool, elapsed time.Duration) {
	p.mu.Lock()
	if ok {
		p.ok++
	} else {
		p.fail++
	}
	p.duration += elapsed.Seconds()
	p.last = collector
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", 80))
	p.printLocked()
	fmt.Fprintln(p.w)
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
		case <-ticker.C:
		case <-p.done:
			return
		}
		p.mu.Lock()
		select {
		case <-p.done:
		default:
			p.printLocked()
		}
		p.mu.Unlock()
	}
}

func (p *progressPrinter) printLocked() {
	completed := p.ok + p.fail
	if completed > p.total {
		p.total = completed
	}

	percent := (float64(completed) / float64(p.total)) * 100
	avg := 0.0
	if completed > 0 {
		avg = p.duration / float64(completed)
	}

	line := fmt.Sprintf("\r[%s] Collectors: %d/%d (%.1f%%) OK:%d Fail:%d Avg:%.2fs",
		p.name, completed, p.total, percent, p.ok, p.fail, avg)
	if p.last != "" {
		line += " last:" + p.last
	}
	fmt.Fprint(p.w, line)
}
