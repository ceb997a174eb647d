package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCOD      PaymentMethod = "cod"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentTransfer || m == PaymentCOD
}

// Transaction is one customer order.
type Transaction struct {
	ID              int64           `json:"id"`
	UserID          *int64          `json:"user_id"`
	Code            string          `json:"transaction_code"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	CustomerNote    string          `json:"customer_note"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`

	// Account details of the ordering user, filled by joins.
	UserName  *string `json:"user_name,omitempty"`
	UserEmail *string `json:"user_email,omitempty"`

	Items []Item `json:"items,omitempty"`
}

// Subtotal is the item total, i.e. the stored total without the shipping fee.
func (t Transaction) Subtotal() decimal.Decimal {
	return t.TotalAmount.Sub(ShippingFee)
}

// OwnedBy reports whether userID placed the transaction.
func (t Transaction) OwnedBy(userID int64) bool {
	return t.UserID != nil && *t.UserID == userID
}

// Item is one order line. ProductName is the snapshot taken at checkout;
// CurrentProductName is the product's present name, nil if it was deleted.
type Item struct {
	ID                 int64           `json:"id"`
	TransactionID      int64           `json:"transaction_id"`
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	CurrentProductName *string         `json:"current_product_name"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

// Summary is the compact row used by dashboard widgets.
type Summary struct {
	ID           int64           `json:"id"`
	Code         string          `json:"transaction_code"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Summarize returns the dashboard view of t.
func (t Transaction) Summarize() Summary {
	return Summary{ID: t.ID, Code: t.Code, CustomerName: t.CustomerName, TotalAmount: t.TotalAmount, Status: t.Status, CreatedAt: t.CreatedAt}
}

// Receipt is returned by a successful checkout.
type Receipt struct {
	TransactionID   int64           `json:"transactionId"`
	TransactionCode string          `json:"transactionCode"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

// OrderPlaced describes a committed checkout for asynchronous follow-ups.
type OrderPlaced struct {
	TransactionID int64
	Code          string
	CustomerName  string
	CustomerEmail string
	TotalAmount   decimal.Decimal
}
