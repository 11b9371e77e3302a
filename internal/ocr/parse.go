package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// rawResult is the JSON shape the vision models are prompted to return
type rawResult struct {
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Vendor      string  `json:"vendor"`
}

// parseResultJSON parses the model's response text into a fully-populated
// Result, applying low-confidence defaults for anything the model left out
func parseResultJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Models sometimes wrap the object in prose; cut to the outermost braces
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &Result{
		Description: strings.TrimSpace(raw.Description),
		Date:        normalizeDate(raw.Date),
		Amount:      decimal.NewFromFloat(raw.Amount),
		Currency:    strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Vendor:      strings.TrimSpace(raw.Vendor),
	}

	if result.Description == "" {
		result.Description = "Unknown Expense"
	}
	if result.Currency == "" {
		result.Currency = "INR"
	}
	if result.Amount.IsNegative() {
		result.Amount = decimal.Zero
	}

	return result, nil
}

// normalizeDate coerces common receipt date formats to YYYY-MM-DD,
// defaulting to today when nothing parses
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Now().Format("2006-01-02")
	}

	if d, err := time.Parse("2006-01-02", date); err == nil {
		return d.Format("2006-01-02")
	}

	formats := []string{
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}

	return time.Now().Format("2006-01-02")
}
