package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Result contains the expense fields extracted from a receipt. Every field
// is populated, with low-confidence defaults where the document gave
// nothing better; callers treat all of it as an editable suggestion.
type Result struct {
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Vendor      string          `json:"vendor,omitempty"`
}

// Extractor defines the interface for receipt extraction backends
type Extractor interface {
	// Extract analyzes a receipt image/PDF and returns the expense fields.
	// It honors ctx cancellation and enforces its own timeout.
	Extract(ctx context.Context, fileData []byte, mimeType string) (*Result, error)

	// Close releases backend resources
	Close() error
}

var (
	// ErrUnsupportedFormat indicates the file is not an image or PDF.
	// It is returned before any backend call is attempted.
	ErrUnsupportedFormat = errors.New("unsupported receipt format")

	// ErrExtractionFailed indicates the backend could not produce a
	// result. Non-fatal to expense creation: callers fall back to a
	// manually-filled form.
	ErrExtractionFailed = errors.New("receipt extraction failed")
)

// CheckFormat validates file data and MIME type before any backend work
func CheckFormat(fileData []byte, mimeType string) error {
	if len(fileData) == 0 {
		return fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt == "application/pdf" || strings.HasPrefix(mt, "image/") {
		return nil
	}
	return fmt.Errorf("%w: %q (want an image or PDF type)", ErrUnsupportedFormat, mimeType)
}
