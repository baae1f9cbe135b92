package upgradecli

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRelease builds a .tar.gz archive containing a single file named
// "skiff" with the given contents.
func makeRelease(t *testing.T, contents string) []byte {
	buf := &bytes.Buffer{}
	gzw := gzip.NewWriter(buf)
	tw := tar.NewWriter(gzw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "skiff",
		Typeflag: tar.TypeReg,
		Mode:     0755,
		Size:     int64(len(contents)),
	}))
	_, err := tw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())

	return buf.Bytes()
}

func TestDownloadSkiff(t *testing.T) {
	text := "skiff binary contents\n"
	archive := makeRelease(t, text)

	version, err := goversion.NewVersion("0.10.0")
	assert.NoError(t, err)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		w.Header().Set("Content-Type", "application/x-gzip")

		assert.Equal(t, osToParam[runtime.GOOS], query.Get("os"))
		assert.Equal(t, version.String(), query.Get("release"))
		assert.Equal(t, Token, query.Get("token"))
		assert.Equal(t, fileParam, query.Get("file"))

		_, err := w.Write(archive)
		assert.NoError(t, err)
	}))
	defer ts.Close()

	endpoint = ts.URL
	fs = afero.NewMemMapFs()
	err = downloadSkiff(version)
	assert.NoError(t, err)

	path, err := os.Getwd()
	assert.NoError(t, err)
	contents, err := afero.ReadFile(fs, filepath.Join(path, "skiff"))
	assert.NoError(t, err)
	assert.Equal(t, []byte(text), contents)
}

func TestDownloadSkiffBadContentType(t *testing.T) {
	version, err := goversion.NewVersion("0.10.0")
	assert.NoError(t, err)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, err := w.Write([]byte("<html>not a release</html>"))
		assert.NoError(t, err)
	}))
	defer ts.Close()

	endpoint = ts.URL
	fs = afero.NewMemMapFs()
	assert.Error(t, downloadSkiff(version))
}

func TestIsWritable(t *testing.T) {
	tests := []struct {
		name   string
		mode   os.FileMode
		stat   *syscall.Stat_t
		uid    int
		gids   []int
		expRes bool
	}{
		{
			name: "User owns file and can write",
			mode: os.FileMode(0744),
			stat: &syscall.Stat_t{
				Uid: 1,
				Gid: 5,
			},
			uid:    1,
			gids:   []int{10},
			expRes: true,
		},
		{
			name: "User in group that owns file and can write",
			mode: os.FileMode(0575),
			stat: &syscall.Stat_t{
				Uid: 1,
				Gid: 10,
			},
			uid:    2,
			gids:   []int{10, 20},
			expRes: true,
		},
		{
			name: "Others can write",
			mode: os.FileMode(0557),
			stat: &syscall.Stat_t{
				Uid: 15,
				Gid: 10,
			},
			uid:    5,
			gids:   []int{20},
			expRes: true,
		},
		{
			name: "User owns but cannot write",
			mode: os.FileMode(0577),
			stat: &syscall.Stat_t{
				Uid: 5,
				Gid: 10,
			},
			uid:    5,
			gids:   []int{10},
			expRes: false,
		},
		{
			name: "Group can write but user not in group",
			mode: os.FileMode(0575),
			stat: &syscall.Stat_t{
				Uid: 5,
				Gid: 10,
			},
			uid:    20,
			gids:   []int{15},
			expRes: false,
		},
		{
			name: "Others can write but user owns file",
			mode: os.FileMode(0557),
			stat: &syscall.Stat_t{
				Uid: 5,
				Gid: 15,
			},
			uid:    5,
			gids:   []int{10},
			expRes: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			res := isWritable(test.mode, test.stat, test.uid, test.gids)
			assert.Equal(t, test.expRes, res)
		})
	}
}
