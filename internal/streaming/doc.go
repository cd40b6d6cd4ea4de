/*
Package streaming sends converted files to HTTP clients with timeout
protection.

A slow or vanished client must not hold a converted artifact on disk
indefinitely, because the artifact is only removed once streaming returns.
TimeoutWriter wraps an http.ResponseWriter and bounds each write, the gap
between writes, and optionally the whole stream.

# Usage

	f, err := os.Open(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	n, err := streaming.StreamWithTimeout(r.Context(), w, f, size, streaming.DefaultTimeoutWriterConfig())
	if errors.Is(err, streaming.ErrClientGone) {
		// client left; not a server error
	}

# Errors

  - ErrWriteTimeout: a write or the idle gap exceeded its limit
  - ErrClientGone: the request context was canceled
  - ErrStreamCanceled: the writer was closed or its context expired

Large writes are split into ChunkSize pieces and flushed after each one so
that cancellation is noticed between chunks.
*/
package streaming
