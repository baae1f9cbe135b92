package deploy

import (
	"fmt"
	"strings"

	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/errors"
)

const (
	// DomainSuffix is appended to the subdomain's leaf label to form the
	// public URL of a deployment.
	DomainSuffix = "skiff.site"

	// DefaultConcurrency is the number of parallel uploads used when the
	// caller doesn't specify one.
	DefaultConcurrency = 8
)

// Params describes a single deployment run.
type Params struct {
	// Subdomain is the public subdomain that should serve the deployment.
	Subdomain string

	// RemoteDir is the path of the remote directory to upload into.
	RemoteDir string

	// Source is the local file or directory to upload. Defaults to the
	// current directory.
	Source string

	// IncludeHidden uploads files and directories whose name starts with a
	// dot.
	IncludeHidden bool

	// Concurrency is the maximum number of parallel uploads. Values less
	// than one fall back to DefaultConcurrency.
	Concurrency int
}

// Result summarizes a completed deployment.
type Result struct {
	// UploadedFiles is the number of files that were uploaded.
	UploadedFiles int

	// URL is the public URL the deployment is served at.
	URL string

	// Action is what the reconciler did to the subdomain binding.
	Action BindingAction
}

// Run deploys the source tree described by `params`. It ensures the remote
// directory exists, uploads the local files into it, and then binds the
// subdomain to the directory.
// Each phase fully completes before the next begins: no upload starts before
// the directory is confirmed, and the binding isn't touched until every
// upload has finished.
func Run(client api.Client, params Params) (Result, error) {
	params, err := validate(params)
	if err != nil {
		return Result{}, err
	}

	files, err := SnapshotSource(params.Source, params.IncludeHidden)
	if err != nil {
		return Result{}, errors.WithContext(err, "snapshot source")
	}

	dir, err := EnsureDirectory(client, params.RemoteDir)
	if err != nil {
		return Result{}, errors.WithContext(err, "ensure remote directory")
	}

	if err := uploadFiles(client, files, params.RemoteDir, params.Concurrency); err != nil {
		return Result{}, err
	}

	action, err := reconcileBinding(client, params.Subdomain, dir)
	if err != nil {
		return Result{}, errors.WithContext(err, "reconcile subdomain binding")
	}

	return Result{
		UploadedFiles: len(files),
		URL:           deployURL(params.Subdomain),
		Action:        action,
	}, nil
}

func validate(params Params) (Params, error) {
	params.Subdomain = strings.TrimSpace(params.Subdomain)
	if params.Subdomain == "" {
		return Params{}, errors.MissingFieldError{Field: "subdomain"}
	}

	params.RemoteDir = strings.TrimSpace(params.RemoteDir)
	if params.RemoteDir == "" {
		return Params{}, errors.MissingFieldError{Field: "dir"}
	}

	if params.Source == "" {
		params.Source = "."
	}
	if params.Concurrency < 1 {
		params.Concurrency = DefaultConcurrency
	}
	return params, nil
}

// deployURL forms the public URL for a subdomain. Only the leaf label is
// used, so a fully qualified name like "my-app.skiff.site" resolves to the
// same URL as "my-app".
func deployURL(subdomain string) string {
	label := subdomain
	if i := strings.Index(subdomain, "."); i != -1 {
		label = subdomain[:i]
	}
	return fmt.Sprintf("https://%s.%s", label, DomainSuffix)
}
