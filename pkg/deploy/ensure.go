package deploy

import (
	"fmt"

	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/errors"
)

// PathConflictError represents when the remote path that should hold the
// deployment is occupied by a file.
type PathConflictError struct {
	Path string
}

func (err PathConflictError) Error() string {
	return fmt.Sprintf("remote path %q exists, but is not a directory", err.Path)
}

// DirectoryCreationError represents when the remote path still isn't a
// directory after we created it.
type DirectoryCreationError struct {
	Path string
}

func (err DirectoryCreationError) Error() string {
	return fmt.Sprintf("created %q, but it is not a directory", err.Path)
}

// EnsureDirectory guarantees that `path` exists as a directory on the remote
// filesystem, and returns its metadata.
// Directory creation on the Skiff API is racy: two concurrent creators can
// both fail with "already exists" even though the directory ends up correct.
// Losing that race is treated as success, and only a genuine type conflict
// (a file at the directory's path) is an error.
func EnsureDirectory(client api.Client, path string) (api.FileInfo, error) {
	fi, err := client.Stat(path)
	switch {
	case err == nil:
		if !fi.IsDir {
			return api.FileInfo{}, PathConflictError{Path: path}
		}
		return fi, nil
	case api.IsNotFound(err):
	default:
		return api.FileInfo{}, errors.WithContext(err, "stat remote directory")
	}

	if err := client.Mkdir(path); err != nil && !api.IsAlreadyExists(err) {
		return api.FileInfo{}, errors.WithContext(err, "create remote directory")
	}

	fi, err = client.Stat(path)
	if err != nil {
		return api.FileInfo{}, errors.WithContext(err, "stat created directory")
	}
	if !fi.IsDir {
		return api.FileInfo{}, DirectoryCreationError{Path: path}
	}
	return fi, nil
}
