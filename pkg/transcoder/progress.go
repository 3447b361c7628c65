package transcoder

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
)

// progressReporter delivers fractions to a callback from its own goroutine.
// Updates arriving while the callback is busy replace the pending one.
type progressReporter struct {
	pending chan float64
	done    chan struct{}
	last    float64
}

func newProgressReporter(cb func(float64)) *progressReporter {
	if cb == nil {
		return nil
	}
	p := &progressReporter{
		pending: make(chan float64, 1),
		done:    make(chan struct{}),
		last:    -1,
	}
	go func() {
		defer close(p.done)
		for f := range p.pending {
			cb(f)
		}
	}()
	return p
}

// report is called from a single goroutine only.
func (p *progressReporter) report(f float64) {
	if p == nil {
		return
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	if f <= p.last {
		return
	}
	p.last = f
	for {
		select {
		case p.pending <- f:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

func (p *progressReporter) close() {
	if p == nil {
		return
	}
	close(p.pending)
	<-p.done
}

// progressWriter parses `ffmpeg -progress` key=value output.
type progressWriter struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	durationUs float64
	reporter   *progressReporter
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			rest := line
			w.buf.Reset()
			w.buf.WriteString(rest)
			break
		}
		w.handleLine(strings.TrimSpace(line))
	}
	return len(p), nil
}

func (w *progressWriter) handleLine(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	// Both keys carry microseconds despite the name of the second one.
	case "out_time_us", "out_time_ms":
		if w.durationUs <= 0 {
			return
		}
		us, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}
		w.reporter.report(us / w.durationUs)
	case "progress":
		if value == "end" {
			w.reporter.report(1)
		}
	}
}
