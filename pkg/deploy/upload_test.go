package deploy

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apiMocks "github.com/skiff-run/skiff/pkg/api/mocks"
	"github.com/skiff-run/skiff/pkg/errors"
)

// makeSourceFiles writes `n` files to the mocked filesystem and returns their
// SourceFile entries.
func makeSourceFiles(t *testing.T, n int) []SourceFile {
	fs = afero.NewMemMapFs()

	var files []SourceFile
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("site/file-%d.txt", i)
		assert.NoError(t, afero.WriteFile(fs, path, []byte("contents"), 0644))
		files = append(files, SourceFile{
			LocalPath:    path,
			RelativePath: fmt.Sprintf("file-%d.txt", i),
		})
	}
	return files
}

func TestUploadFilesExactlyOnce(t *testing.T) {
	files := makeSourceFiles(t, 10)

	client := &apiMocks.Client{}
	client.On("Write", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, uploadFiles(client, files, "/sites/my-app", 3))

	// Every file must be uploaded exactly once, to its joined remote path.
	var gotPaths []string
	for _, call := range client.Calls {
		gotPaths = append(gotPaths, call.Arguments.String(0))
	}

	var expPaths []string
	for i := 0; i < 10; i++ {
		expPaths = append(expPaths, fmt.Sprintf("/sites/my-app/file-%d.txt", i))
	}
	assert.ElementsMatch(t, expPaths, gotPaths)
}

func TestUploadFilesNoFiles(t *testing.T) {
	client := &apiMocks.Client{}
	assert.NoError(t, uploadFiles(client, nil, "/sites/my-app", 3))
	client.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestUploadFilesFirstFailureAborts(t *testing.T) {
	files := makeSourceFiles(t, 100)

	writeErr := errors.New("disk full")
	client := &apiMocks.Client{}
	client.On("Write", mock.Anything, mock.Anything).Return(writeErr)

	err := uploadFiles(client, files, "/sites/my-app", 1)
	assert.Error(t, err)
	assert.Equal(t, writeErr, errors.RootCause(err))

	// After the first failure no new work is handed out. A few uploads may
	// already be buffered or in flight, but the bulk of the queue must never
	// be attempted.
	assert.Less(t, len(client.Calls), 10)
}

func TestUploadFilesProgress(t *testing.T) {
	files := makeSourceFiles(t, 26)

	client := &apiMocks.Client{}
	client.On("Write", mock.Anything, mock.Anything).Return(nil)

	hook := logrusTest.NewGlobal()
	defer hook.Reset()

	assert.NoError(t, uploadFiles(client, files, "/sites/my-app", 4))

	// One entry at the 25th completion, and one at the final completion.
	var progress []logrus.Fields
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Upload progress" {
			progress = append(progress, entry.Data)
		}
	}
	assert.Equal(t, []logrus.Fields{
		{"uploaded": 25, "total": 26},
		{"uploaded": 26, "total": 26},
	}, progress)
}

func TestRemoteJoin(t *testing.T) {
	tests := []struct {
		elem []string
		exp  string
	}{
		{[]string{"a/b/", "c.txt"}, "a/b/c.txt"},
		{[]string{"a/b", "c.txt"}, "a/b/c.txt"},
		{[]string{"/sites/my-app", "css/site.css"}, "/sites/my-app/css/site.css"},
		{[]string{"/sites/my-app/", "/index.html"}, "/sites/my-app/index.html"},
		{[]string{"a//b", "c.txt"}, "a/b/c.txt"},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, remoteJoin(test.elem...))
	}
}
