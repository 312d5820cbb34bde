package food

import "github.com/shopspring/decimal"

// Food is catalog reference data. The catalog is owned elsewhere and read
// here only to price order items.
type Food struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
}
