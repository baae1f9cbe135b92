package deploy

import (
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/errors"
)

// BindingAction describes how a subdomain binding was reconciled.
type BindingAction string

const (
	// BindingCreated means no binding existed for the subdomain, so one was
	// created pointing at the target directory.
	BindingCreated BindingAction = "created"

	// BindingUpdated means the subdomain was bound to a different directory,
	// and was rebound to the target directory.
	BindingUpdated BindingAction = "updated"

	// BindingUnchanged means the subdomain was already bound to the target
	// directory.
	BindingUnchanged BindingAction = "unchanged"
)

// reconcileBinding makes the subdomain point at `dir`.
// Directories are compared by UID rather than by path. Paths can be renamed
// out from under a binding, so the UID is the only trustworthy identity.
func reconcileBinding(client api.Client, subdomain string, dir api.FileInfo) (
	BindingAction, error) {

	curr, err := client.GetSubdomain(subdomain)
	switch {
	case api.IsNotFound(err):
		if _, err := client.CreateSubdomain(subdomain, dir.UID); err != nil {
			return "", errors.WithContext(err, "create subdomain")
		}
		return BindingCreated, nil
	case err != nil:
		return "", errors.WithContext(err, "get subdomain")
	}

	if curr.RootDirUID == dir.UID {
		return BindingUnchanged, nil
	}

	if err := client.UpdateSubdomain(subdomain, dir.UID); err != nil {
		return "", errors.WithContext(err, "update subdomain")
	}
	return BindingUpdated, nil
}
