package domain

import "time"

// ExpenseCategories is the fixed taxonomy used to categorize receipts.
var ExpenseCategories = []string{
	"food", "transport", "housing", "utilities", "health",
	"entertainment", "shopping", "education", "travel", "other",
}

// LineItem is one line of a receipt.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Transaction is a categorized expense extracted from a receipt or statement.
type Transaction struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Merchant  string     `json:"merchant"`
	Date      string     `json:"date,omitempty"`
	Total     float64    `json:"total"`
	Currency  string     `json:"currency,omitempty"`
	Category  string     `json:"category,omitempty"`
	Items     []LineItem `json:"items,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
