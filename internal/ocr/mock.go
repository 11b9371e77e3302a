package ocr

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Mock implements the Extractor interface with a canned result, standing in
// for a real recognition service in development and tests. It still applies
// the format gate and honors cancellation, so callers exercise the same
// contract as with a real backend.
type Mock struct {
	Result *Result
	Err    error
	Delay  time.Duration
}

// NewMock creates a Mock with a plausible default result
func NewMock() *Mock {
	return &Mock{
		Result: &Result{
			Description: "Restaurant bill",
			Date:        time.Now().Format("2006-01-02"),
			Amount:      decimal.NewFromInt(1500),
			Currency:    "INR",
			Vendor:      "Sample Restaurant",
		},
	}
}

// Extract returns the canned result after the configured delay
func (m *Mock) Extract(ctx context.Context, fileData []byte, mimeType string) (*Result, error) {
	if err := CheckFormat(fileData, mimeType); err != nil {
		return nil, err
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	result := *m.Result
	return &result, nil
}

// Close is a no-op
func (m *Mock) Close() error {
	return nil
}
