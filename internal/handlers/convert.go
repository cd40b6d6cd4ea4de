package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"webm2mp4/internal/filesystem"
	"webm2mp4/internal/logging"
	"webm2mp4/internal/mediatypes"
	"webm2mp4/internal/metrics"
	"webm2mp4/internal/streaming"
	"webm2mp4/internal/workspace"
)

const (
	videoField = "video"

	// multipartMemory is how much of the form is held in memory before the
	// multipart reader spills to its own temporary files.
	multipartMemory = 1 << 20

	// multipartOverhead allows for boundaries, part headers and small fields
	// on top of the file itself.
	multipartOverhead = 1 << 20

	conversionFailedMessage = "Video conversion failed."
)

// Convert accepts a WebM upload in the "video" form field, converts it to
// MP4 and streams the result back as an attachment. The upload and the
// converted file are removed before the handler returns.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	metrics.ConversionsInFlight.Inc()
	defer metrics.ConversionsInFlight.Dec()

	job := h.workspace.NewJob()
	defer job.Cleanup()
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logging.Warn("job %s: failed to remove multipart temp files: %v", job.ID, err)
			}
		}
	}()

	outcome := h.convert(w, r, job)
	metrics.RecordConversion(outcome)
	logging.Debug("job %s finished: %s", job.ID, outcome)
}

func (h *Handlers) convert(w http.ResponseWriter, r *http.Request, job *workspace.Job) string {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		logging.Info("job %s: rejected upload: %v", job.ID, err)
		writeError(w, err)
		return outcomeFor(err)
	}
	defer upload.Close()
	job.Advance(workspace.StateValidated)

	size, err := h.workspace.SaveUpload(job, upload, h.maxUploadBytes)
	if err != nil {
		if errors.Is(err, workspace.ErrTooLarge) {
			err = tooLarge(h.maxUploadBytes, err)
			logging.Info("job %s: rejected upload: %v", job.ID, err)
		} else {
			err = newRequestError(ErrInternal, "Failed to store upload.", err)
			logging.Error("job %s: %v", job.ID, err)
		}
		writeError(w, err)
		return outcomeFor(err)
	}
	metrics.UploadSizeBytes.Observe(float64(size))
	job.Advance(workspace.StatePersisted)

	job.Advance(workspace.StateTranscoding)
	result := <-h.transcoder.Start(r.Context(), job.UploadPath, job.OutputPath)
	if !result.Succeeded() {
		job.Advance(workspace.StateFailed)
		if result.Canceled() && r.Context().Err() != nil {
			logging.Info("job %s: client disconnected during conversion", job.ID)
			return metrics.OutcomeClientDisconnect
		}
		if result.Canceled() {
			logging.Warn("job %s: conversion stopped by shutdown", job.ID)
		}
		http.Error(w, conversionFailedMessage, http.StatusInternalServerError)
		return metrics.OutcomeTranscodeFailed
	}

	job.Advance(workspace.StateStreaming)
	return h.streamResult(w, r, job)
}

// receiveUpload validates the multipart request and returns the uploaded
// file. Nothing is written to the workspace.
func (h *Handlers) receiveUpload(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, tooLarge(h.maxUploadBytes, err)
		}
		return nil, newRequestError(ErrBadRequest, fmt.Sprintf("Malformed upload: %v", err), err)
	}

	file, header, err := r.FormFile(videoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, newRequestError(ErrBadRequest, "No video file provided", err)
		}
		return nil, newRequestError(ErrBadRequest, fmt.Sprintf("Malformed upload: %v", err), err)
	}

	contentType := header.Header.Get("Content-Type")
	if !mediatypes.IsAccepted(contentType) {
		_ = file.Close()
		return nil, newRequestError(ErrUnsupportedMediaType,
			"Invalid file type. Only .webm files are allowed.",
			fmt.Errorf("declared type %q", contentType))
	}

	if header.Size > h.maxUploadBytes {
		_ = file.Close()
		return nil, tooLarge(h.maxUploadBytes, fmt.Errorf("declared size %d", header.Size))
	}

	return file, nil
}

// streamResult sends the converted file. Headers are only set here, once
// the output is known to exist.
func (h *Handlers) streamResult(w http.ResponseWriter, r *http.Request, job *workspace.Job) string {
	info, err := filesystem.StatWithRetry(job.OutputPath, h.retry)
	if err != nil {
		logging.Error("job %s: converted file unavailable: %v", job.ID, err)
		http.Error(w, conversionFailedMessage, http.StatusInternalServerError)
		return metrics.OutcomeTranscodeFailed
	}
	if info.Size() == 0 {
		logging.Error("job %s: FFmpeg produced an empty file", job.ID)
		http.Error(w, conversionFailedMessage, http.StatusInternalServerError)
		return metrics.OutcomeTranscodeFailed
	}

	f, err := filesystem.OpenWithRetry(job.OutputPath, h.retry)
	if err != nil {
		logging.Error("job %s: failed to open converted file: %v", job.ID, err)
		http.Error(w, conversionFailedMessage, http.StatusInternalServerError)
		return metrics.OutcomeInternalError
	}
	defer f.Close()

	w.Header().Set("Content-Type", mediatypes.Output.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, job.OutputName))
	w.Header().Set("Cache-Control", "no-store")

	n, err := streaming.StreamWithTimeout(r.Context(), w, f, info.Size(), h.streamConfig)
	metrics.StreamedBytesTotal.Add(float64(n))
	if err != nil {
		if errors.Is(err, streaming.ErrClientGone) {
			logging.Info("job %s: client disconnected after %d of %d bytes", job.ID, n, info.Size())
			return metrics.OutcomeClientDisconnect
		}
		logging.Warn("job %s: streaming failed after %d of %d bytes: %v", job.ID, n, info.Size(), err)
		return metrics.OutcomeStreamFailed
	}

	return metrics.OutcomeSuccess
}
