package deploy

import (
	"fmt"
	"strings"
	goSync "sync"

	log "github.com/sirupsen/logrus"

	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/errors"
)

// progressInterval is how many completed uploads we wait between progress
// log entries.
const progressInterval = 25

type uploadResult struct {
	remotePath string
	err        error
}

// uploadFiles writes each source file to its destination under `remoteRoot`,
// running at most `concurrency` uploads in parallel.
// The first failed upload aborts the operation: no new work is handed out,
// although uploads that are already in flight run to completion. There are no
// retries at this layer.
func uploadFiles(client api.Client, files []SourceFile, remoteRoot string,
	concurrency int) error {

	if len(files) == 0 {
		return nil
	}

	numWorkers := concurrency
	if numWorkers < 1 {
		numWorkers = 1
	}
	if len(files) < numWorkers {
		numWorkers = len(files)
	}

	var uploadWaitGroup goSync.WaitGroup
	toUploadChan := make(chan SourceFile, numWorkers*2)
	uploadResults := make(chan uploadResult, numWorkers)
	for i := 0; i < numWorkers; i++ {
		uploadWaitGroup.Add(1)
		go func() {
			defer uploadWaitGroup.Done()
			for f := range toUploadChan {
				remotePath := remoteJoin(remoteRoot, f.RelativePath)
				uploadResults <- uploadResult{
					remotePath: remotePath,
					err:        uploadFile(client, f, remotePath),
				}
			}
		}()
	}

	// Feed the upload workers. The feeder stops handing out work once the
	// result loop observes a failure.
	aborted := make(chan struct{})
	go func() {
		defer close(toUploadChan)
		for _, f := range files {
			select {
			case toUploadChan <- f:
			case <-aborted:
				return
			}
		}
	}()

	go func() {
		uploadWaitGroup.Wait()
		close(uploadResults)
	}()

	// Process the results from uploading.
	var firstErr error
	var completed int
	for res := range uploadResults {
		if res.err != nil {
			if firstErr == nil {
				firstErr = errors.WithContext(res.err,
					fmt.Sprintf("upload %s", res.remotePath))
				close(aborted)
			}
			continue
		}

		completed++
		if completed%progressInterval == 0 || completed == len(files) {
			log.WithFields(log.Fields{
				"uploaded": completed,
				"total":    len(files),
			}).Info("Upload progress")
		}
	}
	return firstErr
}

func uploadFile(client api.Client, f SourceFile, remotePath string) error {
	contents, err := fs.Open(f.LocalPath)
	if err != nil {
		return errors.WithContext(err, "open local file")
	}
	defer contents.Close()

	return client.Write(remotePath, contents)
}

// remoteJoin joins path segments with forward slashes, collapsing duplicate
// separators. A leading slash on the first segment is preserved so that
// absolute remote paths stay absolute.
func remoteJoin(elem ...string) string {
	joined := strings.Join(elem, "/")
	isAbs := strings.HasPrefix(joined, "/")

	var parts []string
	for _, part := range strings.Split(joined, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	result := strings.Join(parts, "/")
	if isAbs {
		result = "/" + result
	}
	return result
}
