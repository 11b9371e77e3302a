package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openclerk/expensedash/internal/ocr"
)

// IDGenerator generates unique identifiers
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service coordinates expense submissions: form validation, optional receipt
// upload and record persistence
type Service struct {
	store           RecordStore
	blobs           BlobStore
	extractor       ocr.Extractor
	defaultEmployee string
	timeSource      TimeSource
}

// NewService creates a new Service with the default time source
func NewService(store RecordStore, blobs BlobStore, extractor ocr.Extractor, defaultEmployee string) *Service {
	return NewServiceWithDeps(store, blobs, extractor, defaultEmployee, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store RecordStore, blobs BlobStore, extractor ocr.Extractor, defaultEmployee string, timeSrc TimeSource) *Service {
	return &Service{
		store:           store,
		blobs:           blobs,
		extractor:       extractor,
		defaultEmployee: defaultEmployee,
		timeSource:      timeSrc,
	}
}

// Submit validates the form, uploads the attachment if present and appends
// a draft record to the store. The upload happens before the append so a
// record can never reference a blob that does not exist; the inverse (an
// orphaned blob after a failed append) is tolerated and not retried.
func (s *Service) Submit(ctx context.Context, form Form, attachment *Attachment) (*Record, error) {
	record, err := s.validate(form)
	if err != nil {
		return nil, err
	}

	if attachment != nil {
		key := fmt.Sprintf("%d_%s", s.timeSource.Now().UnixNano(), sanitizeFilename(attachment.Filename))
		ref, err := s.blobs.Upload(key, attachment.Data)
		if err != nil {
			slog.Error("Failed to upload receipt",
				"filename", attachment.Filename,
				"file_size", len(attachment.Data),
				"error", err,
			)
			return nil, fmt.Errorf("%w: %v", ErrBlobUpload, err)
		}
		record.ReceiptRef = ref
	}

	id, err := s.store.Append(ctx, record)
	if err != nil {
		if record.ReceiptRef != "" {
			slog.Warn("Record append failed after blob upload, blob left orphaned",
				"receipt_ref", record.ReceiptRef,
				"error", err,
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	record.ID = id

	return record, nil
}

// ExtractFromFile runs receipt extraction on an uploaded file. The result
// is a best-effort suggestion for prefilling the form, never authoritative.
func (s *Service) ExtractFromFile(ctx context.Context, data []byte, mimeType string) (*ocr.Result, error) {
	result, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extracting receipt data: %w", err)
	}
	return result, nil
}

// GetReceiptFile retrieves a stored receipt blob by reference
func (s *Service) GetReceiptFile(ref string) ([]byte, error) {
	data, err := s.blobs.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("getting receipt file: %w", err)
	}
	return data, nil
}

// validate checks every form field and builds a draft record from it.
// No side effects are performed; the first failing field aborts.
func (s *Service) validate(form Form) (*Record, error) {
	employee := strings.TrimSpace(form.Employee)
	if employee == "" {
		employee = s.defaultEmployee
	}
	if employee == "" {
		return nil, invalidInput("employee", "must not be empty")
	}

	description := strings.TrimSpace(form.Description)
	if description == "" {
		return nil, invalidInput("description", "must not be empty")
	}

	if _, err := time.Parse("2006-01-02", form.Date); err != nil {
		return nil, invalidInput("date", "must be a calendar date in YYYY-MM-DD format")
	}

	if !contains(Categories, form.Category) {
		return nil, invalidInput("category", fmt.Sprintf("must be one of: %s", strings.Join(Categories, ", ")))
	}

	if !contains(PaidByOptions, form.PaidBy) {
		return nil, invalidInput("paidBy", fmt.Sprintf("must be one of: %s", strings.Join(PaidByOptions, ", ")))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(form.Amount))
	if err != nil {
		return nil, invalidInput("amount", "must be a decimal number")
	}
	if amount.IsNegative() {
		return nil, invalidInput("amount", "must not be negative")
	}

	if !contains(Currencies, form.Currency) {
		return nil, invalidInput("currency", fmt.Sprintf("must be one of: %s", strings.Join(Currencies, ", ")))
	}

	return &Record{
		Employee:    employee,
		Description: description,
		Category:    form.Category,
		PaidBy:      form.PaidBy,
		Remarks:     strings.TrimSpace(form.Remarks),
		Date:        form.Date,
		Amount:      amount,
		Currency:    form.Currency,
		Status:      StatusDraft,
	}, nil
}
