/*
Package filesystem provides the temp-directory file operations used by the
conversion service, with retry logic for NFS stale file handle errors.

The upload and converted directories are often mounted from shared storage
in container deployments. Opening, stating and removing files there can fail
transiently with ESTALE; those errors are retried with exponential backoff.
Any other error is returned immediately.

# Usage

	f, err := filesystem.OpenWithRetry(outputPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

# Metrics

Operations are labeled by volume ("uploads", "converted") using a
VolumeResolver configured at startup. Metrics are reported through an
Observer so this package does not depend on Prometheus directly:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"uploads":   cfg.UploadDir,
		"converted": cfg.ConvertedDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

Without an observer, metric recording is skipped.
*/
package filesystem
