package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/skiff-run/skiff/pkg/analytics"
	"github.com/skiff-run/skiff/pkg/errors"
)

// ClearProgress erases the progress line so that the final output isn't
// interleaved with progress dots.
const ClearProgress = "\r\033[K"

// Mocked for unit testing.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	clock            = clockwork.NewRealClock()
	exit             = os.Exit
)

// HandleFatalError prints the given error and exits with a non-zero status.
// Friendly errors are printed bare since their message is written for the
// user. Everything else goes through the logger so that the full error chain
// is preserved for debugging.
func HandleFatalError(err error) {
	analytics.Log.WithError(err).Error("Fatal error")

	if _, ok := errors.RootCause(err).(errors.FriendlyError); ok {
		fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic recovers from panics, reports them to analytics, and exits.
// It should be deferred at the start of main and of any long-lived
// goroutine.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	stack := string(debug.Stack())
	analytics.Log.WithFields(log.Fields{
		"panic": fmt.Sprintf("%v", r),
		"stack": stack,
	}).Error("Panicked")

	fmt.Fprintf(os.Stderr, "Skiff hit an unexpected error: %v\n%s", r, stack)
	exit(1)
}

// PromptYesOrNo asks the user the given question, and re-prompts until the
// answer is some form of yes or no.
func PromptYesOrNo(question string) (bool, error) {
	stdinReader := bufio.NewReader(stdin)
	for {
		fmt.Fprintf(stdout, "%s (y/n): ", question)
		resp, err := stdinReader.ReadString('\n')
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(resp)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// ProgressPrinter prints a message followed by a dot every second until it's
// stopped. It's an indication that the CLI is still working during
// long-running operations.
type ProgressPrinter struct {
	out     io.Writer
	msg     string
	stop    chan struct{}
	stopped chan struct{}
}

// NewProgressPrinter creates a new ProgressPrinter that writes to `out`.
func NewProgressPrinter(out io.Writer, msg string) *ProgressPrinter {
	return &ProgressPrinter{
		out:     out,
		msg:     msg,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run prints dots until Stop is called. It's meant to be run in a goroutine.
func (pp *ProgressPrinter) Run() {
	defer close(pp.stopped)

	fmt.Fprint(pp.out, pp.msg)
	for {
		select {
		case <-clock.After(1 * time.Second):
			fmt.Fprint(pp.out, ".")
		case <-pp.stop:
			fmt.Fprintln(pp.out)
			return
		}
	}
}

// Stop terminates the progress printing, and waits until the printer's
// goroutine has exited so that nothing else races with its output.
func (pp *ProgressPrinter) Stop() {
	close(pp.stop)
	<-pp.stopped
}

// StopWithPrint stops the printer and then writes `s`. It's used with
// ClearProgress to erase the progress line entirely.
func (pp *ProgressPrinter) StopWithPrint(s string) {
	pp.Stop()
	fmt.Fprint(pp.out, s)
}
