package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/skiff-run/skiff/pkg/errors"
)

// Mocked out for unit testing.
var (
	fs        = afero.NewOsFs()
	isSymlink = func(fi os.FileInfo) bool { return fi.Mode()&os.ModeSymlink != 0 }
)

// A SourceFile is a local file that will be uploaded as part of a deployment.
type SourceFile struct {
	// LocalPath is the path to the file that can be opened by the skiff
	// process. It may be either a relative path or an absolute path.
	LocalPath string

	// RelativePath is the file's path relative to the source root, using
	// forward slashes. It's joined with the remote directory to compute the
	// upload destination.
	RelativePath string
}

// InvalidSourceError represents when the deployment source is neither a
// regular file nor a directory.
type InvalidSourceError struct {
	Path string
}

func (err InvalidSourceError) Error() string {
	return fmt.Sprintf("%q is not a file or directory", err.Path)
}

// SnapshotSource returns the files under `source` that should be uploaded.
// Entries whose name starts with a dot are skipped unless `includeHidden` is
// set. Symbolic links are never followed.
// The order of the returned files is not defined.
func SnapshotSource(source string, includeHidden bool) ([]SourceFile, error) {
	fi, err := fs.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, InvalidSourceError{Path: source}
		}
		return nil, errors.WithContext(err, "stat source")
	}

	if !fi.IsDir() {
		if !fi.Mode().IsRegular() {
			return nil, InvalidSourceError{Path: source}
		}
		return []SourceFile{{
			LocalPath:    source,
			RelativePath: filepath.Base(source),
		}}, nil
	}

	var files []SourceFile
	err = afero.Walk(fs, source, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk")
		}

		if path == source {
			return nil
		}

		if !includeHidden && strings.HasPrefix(fi.Name(), ".") {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if isSymlink(fi) {
			log.WithField("path", path).Warn(
				"Skipping symbolic link. Skiff doesn't follow symlinks.")
			return nil
		}

		if fi.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(source, path)
		if err != nil {
			return errors.WithContext(err, "normalize path")
		}
		if strings.HasPrefix(relativePath, "..") {
			// This shouldn't happen because `path` is always a child of
			// `source`.
			return errors.New("normalize path: escaped source root")
		}

		files = append(files, SourceFile{
			LocalPath:    path,
			RelativePath: filepath.ToSlash(relativePath),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
