package util

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer so the test can read it while the
// ProgressPrinter goroutine writes.
type syncBuffer struct {
	buf  bytes.Buffer
	lock sync.Mutex
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.lock.Lock()
	defer sb.lock.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.lock.Lock()
	defer sb.lock.Unlock()
	return sb.buf.String()
}

func TestProgressPrinter(t *testing.T) {
	fakeClock := clockwork.NewFakeClock()
	clock = fakeClock
	defer func() { clock = clockwork.NewRealClock() }()

	out := &syncBuffer{}
	pp := NewProgressPrinter(out, "Uploading")
	go pp.Run()

	// Wait for the printer to start sleeping, then tick twice. Blocking again
	// after each advance guarantees the dot was printed before we move on.
	fakeClock.BlockUntil(1)
	fakeClock.Advance(1 * time.Second)
	fakeClock.BlockUntil(1)
	fakeClock.Advance(1 * time.Second)
	fakeClock.BlockUntil(1)

	pp.Stop()
	assert.Equal(t, "Uploading..\n", out.String())
}

func TestProgressPrinterStopWithPrint(t *testing.T) {
	fakeClock := clockwork.NewFakeClock()
	clock = fakeClock
	defer func() { clock = clockwork.NewRealClock() }()

	out := &syncBuffer{}
	pp := NewProgressPrinter(out, "Checking for updates")
	go pp.Run()

	fakeClock.BlockUntil(1)
	pp.StopWithPrint(ClearProgress)
	assert.Equal(t, "Checking for updates\n"+ClearProgress, out.String())
}

func TestPromptYesOrNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		exp   bool
	}{
		{name: "Yes", input: "y\n", exp: true},
		{name: "YesFull", input: "yes\n", exp: true},
		{name: "No", input: "n\n", exp: false},
		{name: "NoFull", input: "No\n", exp: false},
		{name: "RepromptsOnGarbage", input: "maybe\ny\n", exp: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			stdin = strings.NewReader(test.input)
			out := &bytes.Buffer{}
			stdout = out

			resp, err := PromptYesOrNo("Deploy now?")
			assert.NoError(t, err)
			assert.Equal(t, test.exp, resp)
			assert.Contains(t, out.String(), "Deploy now? (y/n): ")
		})
	}
}
