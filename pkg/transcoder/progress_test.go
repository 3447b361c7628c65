package transcoder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressWriter_SplitLines(t *testing.T) {
	var mu sync.Mutex
	var got []float64
	r := newProgressReporter(func(f float64) {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
	})
	w := &progressWriter{durationUs: 4e6, reporter: r}

	_, _ = w.Write([]byte("frame=1\nout_time_us=10"))
	_, _ = w.Write([]byte("00000\nbitrate=N/A\n"))
	r.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{0.25}, got)
}

func TestProgressWriter_UnknownDuration(t *testing.T) {
	calls := 0
	r := newProgressReporter(func(float64) { calls++ })
	w := &progressWriter{reporter: r}

	_, _ = w.Write([]byte("out_time_us=1000000\nprogress=end\n"))
	r.close()

	assert.Equal(t, 1, calls, "only the end marker is reported")
}

func TestProgressReporter_NilCallback(t *testing.T) {
	r := newProgressReporter(nil)
	assert.Nil(t, r)
	r.report(0.5)
	r.close()
}
