package expense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openclerk/expensedash/internal/ocr"
)

// maxUploadSize bounds multipart parsing; high-resolution phone photos
// of receipts can be large
const maxUploadSize = 50 << 20 // 50MB

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps a pipeline error to a distinct, actionable JSON response.
// Every failure kind gets its own status; nothing is swallowed silently.
func writeError(w http.ResponseWriter, err error) {
	var invalid *InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": invalid.Error(),
			"field": invalid.Field,
		})
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error": "Unsupported file type. Please upload an image or PDF receipt.",
		})
	case errors.Is(err, ocr.ErrExtractionFailed):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "Could not read the receipt. Please enter the details manually.",
		})
	case errors.Is(err, ErrBlobUpload):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "Storing the receipt file failed. The expense was not created; please try again.",
		})
	case errors.Is(err, ErrPersist):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Saving the expense failed. Please try again.",
		})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
}

// readUpload pulls the named file out of a multipart request
func readUpload(r *http.Request, field string) (*Attachment, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return &Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// handleSubmit accepts a multipart expense form with an optional receipt file
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error parsing form",
		})
		return
	}

	form := Form{
		Employee:    r.FormValue("employee"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Category:    r.FormValue("category"),
		PaidBy:      r.FormValue("paidBy"),
		Amount:      r.FormValue("amount"),
		Currency:    r.FormValue("currency"),
		Remarks:     r.FormValue("remarks"),
	}

	var attachment *Attachment
	if a, err := readUpload(r, "receipt"); err == nil {
		attachment = a
	}

	record, err := s.service.Submit(r.Context(), form, attachment)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleExtract runs receipt extraction on an uploaded file and returns the
// suggested form fields
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error parsing form",
		})
		return
	}

	upload, err := readUpload(r, "receipt")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No file was provided. Please choose a receipt to upload.",
		})
		return
	}

	result, err := s.service.ExtractFromFile(r.Context(), upload.Data, upload.ContentType)
	if err != nil {
		slog.Error("Receipt extraction failed",
			"filename", upload.Filename,
			"content_type", upload.ContentType,
			"file_size", len(upload.Data),
			"error", err,
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDashboard returns the current consistent (records, summary) pair
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Snapshot
		Degraded bool `json:"degraded"`
	}{
		Snapshot: s.reconciler.Snapshot(),
		Degraded: s.reconciler.Degraded(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStream pushes live dashboard snapshots over Server-Sent Events.
// The subscription is released when the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "streaming not supported",
		})
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	snapshots, cancel := s.reconciler.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				slog.Error("Error encoding snapshot", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleReceiptFile serves a stored receipt blob back to the client
func (s *Server) handleReceiptFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	data, err := s.service.GetReceiptFile(key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "Receipt not found",
		})
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}
