package analytics

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/skiff-run/skiff/pkg/version"
)

var (
	// Log is the global analytics logger. Log events created via this object are
	// automatically pushed into our analytics system.
	Log = newAnalyticsLogger()

	// Optional values for automatically enriching the analytics metadata.
	source  string
	account string

	// Mocked out for unit testing.
	httpPost = http.Post
)

func newAnalyticsLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	// Don't actually publish analytics if we weren't compiled from `make`
	// (i.e. we're most likely being called from `go test`), or if we're
	// running a development copy of Skiff.
	if version.Version != version.EmptyValue || strings.HasSuffix(version.Version, "-dev") {
		logger.AddHook(&hook{logrus.AllLevels, analyticsStream})
	}

	return logger
}

const (
	endpoint    = "https://analytics.skiff.run/v1/input"
	contentType = "application/json"

	analyticsStream = "analytics"
	loggingStream   = "logging"
)

// eventFormatter formats log entries the way the analytics intake expects
// them.
var eventFormatter = &logrus.JSONFormatter{
	FieldMap: logrus.FieldMap{
		logrus.FieldKeyTime:  "timestamp",
		logrus.FieldKeyLevel: "status",
		logrus.FieldKeyMsg:   "message",
	},
}

// NewLogHook creates a new hook that forwards log messages to the Skiff
// analytics system.
func NewLogHook() logrus.Hook {
	levels := []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel}
	return &hook{levels, loggingStream}
}

// SetSource sets the source that is automatically added to analytics
// events.
func SetSource(s string) {
	source = s
}

// SetAccount sets the account name that is automatically added to analytics
// events.
func SetAccount(a string) {
	account = a
}

type hook struct {
	levels     []logrus.Level
	streamType string
}

func (h *hook) Levels() []logrus.Level {
	return h.levels
}

func (h *hook) Fire(entry *logrus.Entry) error {
	tags := []string{
		fmt.Sprintf("stream:%s", h.streamType),
		fmt.Sprintf("skiff-version:%s", version.Version),
	}
	if account != "" {
		tags = append(tags, fmt.Sprintf("account:%s", account))
	}

	dataCopy := map[string]interface{}{
		"source": source,
		"tags":   strings.Join(tags, ","),
	}
	for k, v := range entry.Data {
		dataCopy[k] = v
	}

	// Copy the entry so that we don't change it when we add the
	// analytics-specific values to Data.
	entryCopy := *entry
	entryCopy.Data = dataCopy

	// The intake doesn't have a concept of "panic" level, so we treat panics
	// as fatal errors.
	if entry.Level == logrus.PanicLevel {
		entryCopy.Level = logrus.FatalLevel
	}

	jsonBytes, err := eventFormatter.Format(&entryCopy)
	if err != nil {
		logrus.WithError(err).Debug("Failed to marshal log entry for analytics")
		return nil
	}

	resp, err := httpPost(endpoint, contentType, bytes.NewReader(jsonBytes))
	if err != nil {
		logrus.WithError(err).Debug("Failed to update analytics")
	} else {
		// Close the body to avoid leaking resources.
		resp.Body.Close()
	}

	// Never return an error because doing so causes the error to be printed
	// directly to `stderr`, which messes up the CLI output.
	return nil
}
