package analytics

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/skiff-run/skiff/pkg/errors"
	"github.com/skiff-run/skiff/pkg/version"
)

func TestAnalyticsLogger(t *testing.T) {
	var postPayloads []interface{}
	httpPost = func(gotEndpoint, gotContentType string, body io.Reader) (*http.Response, error) {
		assert.Equal(t, endpoint, gotEndpoint)
		assert.Equal(t, contentType, gotContentType)

		bodyBytes, err := ioutil.ReadAll(body)
		assert.NoError(t, err)

		var payload interface{}
		err = json.Unmarshal(bodyBytes, &payload)
		assert.NoError(t, err)

		postPayloads = append(postPayloads, payload)

		respBody := ioutil.NopCloser(bytes.NewBufferString("unused"))
		return &http.Response{Body: respBody}, nil
	}

	mockTime := time.Unix(1569172899, 0).UTC()

	// Force the analytics logger to reinitialize even though we're running in
	// a unit test.
	version.Version = "testing-version"
	Log = newAnalyticsLogger()

	// Only set the source.
	SetSource("deploy")
	Log.WithFields(logrus.Fields{
		"subdomain": "my-app",
		"error":     errors.New("wrapped error message"),
	}).WithTime(mockTime).Error("message")
	assert.Len(t, postPayloads, 1)
	assert.Equal(t, postPayloads[0], map[string]interface{}{
		"source":    "deploy",
		"tags":      "stream:analytics,skiff-version:testing-version",
		"message":   "message",
		"subdomain": "my-app",
		"error":     "wrapped error message",
		"status":    "error",
		"timestamp": "2019-09-22T17:21:39Z",
	})

	// Test that Panics get converted to Fatal.
	func() {
		defer func() {
			recover()
		}()
		Log.WithTime(mockTime).Panic("Panic!")
	}()
	assert.Len(t, postPayloads, 2)
	assert.Equal(t, postPayloads[1], map[string]interface{}{
		"source":    "deploy",
		"tags":      "stream:analytics,skiff-version:testing-version",
		"message":   "Panic!",
		"status":    "fatal",
		"timestamp": "2019-09-22T17:21:39Z",
	})

	// Set the account, and log at INFO.
	SetAccount("test-user")
	Log.WithFields(logrus.Fields{
		"subdomain": "my-app",
		"uploaded":  5,
	}).WithTime(mockTime).Info("Deployed")
	assert.Len(t, postPayloads, 3)
	assert.Equal(t, postPayloads[2], map[string]interface{}{
		"source":    "deploy",
		"tags":      "stream:analytics,skiff-version:testing-version,account:test-user",
		"message":   "Deployed",
		"subdomain": "my-app",
		"uploaded":  float64(5),
		"status":    "info",
		"timestamp": "2019-09-22T17:21:39Z",
	})
}
