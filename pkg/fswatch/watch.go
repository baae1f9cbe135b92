package fswatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/skiff-run/skiff/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches for changes to the files under `source`. It sends an event on
// the returned channel whenever a watched file changes.
// Hidden entries are ignored unless `includeHidden` is set, mirroring which
// files a deployment actually uploads.
func Watch(source string, includeHidden bool) (chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(source, includeHidden)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}
	return combineUpdates(watcher.Events), nil
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

func getPathsToWatch(source string, includeHidden bool) (paths []string, err error) {
	fi, err := fs.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: source}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		// If the path is a file, then watch its parent directory as well
		// as the file itself. This way, if the file is removed and
		// re-added we'll notice.
		// This will also cause triggers when other files in the directory
		// are created or removed, but this is fine since the redeploy will
		// just re-upload the same contents.
		return []string{source, filepath.Dir(source)}, nil
	}

	// Because fsnotify doesn't watch directories recursively, we walk the
	// tree and add all subdirectories and files.
	err = afero.Walk(fs, source, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if path != source && !includeHidden && strings.HasPrefix(fi.Name(), ".") {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
