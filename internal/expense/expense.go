package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record represents a single expense claim document
type Record struct {
	ID          string          `json:"id"`
	Employee    string          `json:"employee"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	PaidBy      string          `json:"paidBy"`
	Remarks     string          `json:"remarks"`
	Date        string          `json:"date"` // Calendar date, YYYY-MM-DD
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	ReceiptRef  string          `json:"receiptRef,omitempty"` // Blob store reference, empty when no receipt attached
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Form holds the raw, user-supplied fields of a submission before validation
type Form struct {
	Employee    string `json:"employee"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	PaidBy      string `json:"paidBy"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Remarks     string `json:"remarks"`
}

// Attachment is an optional receipt file accompanying a submission
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Summary holds per-status totals for the dashboard cards.
// Rejected expenses are deliberately excluded from the totals.
type Summary struct {
	Draft     decimal.Decimal `json:"draft"`
	Submitted decimal.Decimal `json:"submitted"`
	Approved  decimal.Decimal `json:"approved"`
}

// ZeroSummary returns a Summary with all totals at zero
func ZeroSummary() Summary {
	return Summary{
		Draft:     decimal.Zero,
		Submitted: decimal.Zero,
		Approved:  decimal.Zero,
	}
}

// Categories lists the accepted expense categories
var Categories = []string{
	"Food",
	"Travel",
	"Office Supplies",
	"Entertainment",
	"Accommodation",
	"Transportation",
	"Gifts",
	"Other",
}

// PaidByOptions lists who can have fronted the expense
var PaidByOptions = []string{
	"Employee",
	"Company",
}

// Currencies lists the accepted currency codes
var Currencies = []string{
	"INR",
	"USD",
	"EUR",
	"GBP",
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
