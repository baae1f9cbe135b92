package deploy

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/deploy"
	"github.com/skiff-run/skiff/pkg/errors"
	"github.com/skiff-run/skiff/pkg/fswatch"
)

// The interval to poll the filesystem for any changes that need to be
// redeployed. It's both the fallback when the file watcher can't run and a
// safety net for changes the watcher misses.
const pollSeconds = 15

// watchLoop redeploys whenever the source tree changes. Failures of an
// individual redeploy are logged, and the loop keeps going.
func watchLoop(client api.Client, params deploy.Params) error {
	fileWatcher, err := fswatch.Watch(params.Source, params.IncludeHidden)
	if err != nil {
		rootCause := errors.RootCause(err)
		if dneErr, ok := rootCause.(errors.FileNotFound); ok {
			return errors.NewFriendlyError(
				"Failed to watch files for redeploying.\n"+
					"%q doesn't exist.", dneErr.Path)
		} else if strings.Contains(rootCause.Error(), "too many open files") {
			log.Warnf("Too many files for Skiff to automatically watch for "+
				"changes. Skiff will poll for changes every %d seconds instead.",
				pollSeconds)

			// Disable the file watcher channel.
			fileWatcher = nil
		} else {
			return errors.WithContext(err, "watch files")
		}
	}

	log.Info("Watching for changes. Press Ctrl-C to stop.")
	ticker := time.NewTicker(pollSeconds * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-fileWatcher:
		case <-ticker.C:
		}

		result, err := runDeploy(client, params)
		if err != nil {
			log.WithError(err).Error("Redeploy failed")
			continue
		}

		log.WithFields(log.Fields{
			"uploaded": result.UploadedFiles,
			"action":   string(result.Action),
		}).Info("Redeployed")
	}
}
