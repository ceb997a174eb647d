package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// CheckoutRequest is the order payload. Client supplied subtotal, shipping
// and total fields are not decoded; totals are always computed server side.
type CheckoutRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	CustomerNote    string            `json:"customer_note"`
	PaymentMethod   string            `json:"payment_method"`
	Items           []json.RawMessage `json:"items"`
}

// LineItem is a normalized order line.
type LineItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// Order is a validated, normalized checkout request.
type Order struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerNote    string
	PaymentMethod   PaymentMethod
	Lines           []LineItem
}

var (
	productIDKeys   = []string{"product_id", "productId", "id"}
	productNameKeys = []string{"product_name", "productName", "name"}
)

// Normalize validates the request and resolves item field aliases. Missing
// top-level fields are reported together; item errors point at the first
// offending item.
func (r CheckoutRequest) Normalize() (Order, error) {
	order := Order{
		CustomerName:    strings.TrimSpace(r.CustomerName),
		CustomerEmail:   strings.TrimSpace(r.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(r.CustomerPhone),
		CustomerAddress: strings.TrimSpace(r.CustomerAddress),
		CustomerNote:    strings.TrimSpace(r.CustomerNote),
		PaymentMethod:   PaymentMethod(strings.ToLower(strings.TrimSpace(r.PaymentMethod))),
	}

	missing := map[string]bool{
		"customer_name":    order.CustomerName == "",
		"customer_address": order.CustomerAddress == "",
		"payment_method":   order.PaymentMethod == "",
		"items":            len(r.Items) == 0,
	}
	for _, m := range missing {
		if m {
			return Order{}, shared.MissingFields("incomplete transaction data", missing)
		}
	}
	if !order.PaymentMethod.Valid() {
		return Order{}, shared.NewValidationError("payment_method must be transfer or cod")
	}

	order.Lines = make([]LineItem, 0, len(r.Items))
	for i, raw := range r.Items {
		line, err := NormalizeItem(i, raw)
		if err != nil {
			return Order{}, err
		}
		order.Lines = append(order.Lines, line)
	}
	return order, nil
}

// NormalizeItem resolves one raw order line. index is used in error reports.
func NormalizeItem(index int, raw json.RawMessage) (LineItem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return LineItem{}, shared.InvalidItem(index, "item %d is not an object", index+1)
	}

	id, hasID, err := aliasedValue(fields, productIDKeys, parseProductID)
	if err != nil {
		return LineItem{}, shared.InvalidItem(index, "item %d: %v", index+1, err)
	}
	name, hasName, err := aliasedValue(fields, productNameKeys, parseName)
	if err != nil {
		return LineItem{}, shared.InvalidItem(index, "item %d: %v", index+1, err)
	}
	price, hasPrice, err := aliasedValue(fields, []string{"price"}, parsePrice)
	if err != nil {
		return LineItem{}, shared.InvalidItem(index, "item %d: %v", index+1, err)
	}
	qty, hasQty, err := aliasedValue(fields, []string{"quantity"}, parseQuantity)
	if err != nil {
		return LineItem{}, shared.InvalidItem(index, "item %d: %v", index+1, err)
	}

	if !hasID || !hasName || !hasPrice || !hasQty {
		verr := shared.InvalidItem(index, "item %d must have an id, name, price and quantity", index+1)
		verr.Missing = map[string]bool{"id": !hasID, "name": !hasName, "price": !hasPrice, "quantity": !hasQty}
		return LineItem{}, verr
	}
	return LineItem{ProductID: id, ProductName: name, Price: price, Quantity: qty}, nil
}

// aliasedValue reads the first non-null value among keys. Several aliases
// carrying different values are rejected.
func aliasedValue[T comparable](fields map[string]json.RawMessage, keys []string, parse func(json.RawMessage) (T, error)) (T, bool, error) {
	var (
		zero   T
		value  T
		found  bool
		source string
	)
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		v, err := parse(raw)
		if err != nil {
			return zero, false, fmt.Errorf("%s %w", key, err)
		}
		if found && v != value {
			return zero, false, fmt.Errorf("%s conflicts with %s", key, source)
		}
		value, found, source = v, true, key
	}
	return value, found, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// numericText accepts a JSON number or a JSON string holding a number.
func numericText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func parseProductID(raw json.RawMessage) (int64, error) {
	text, ok := numericText(raw)
	if !ok {
		return 0, fmt.Errorf("must be a number")
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return id, nil
}

func parseName(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("must not be empty")
	}
	return s, nil
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	text, ok := numericText(raw)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("must be a number")
	}
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("must be a number")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("must not be negative")
	}
	// prices are stored as NUMERIC(12,2)
	if !price.Equal(price.Round(2)) {
		return decimal.Decimal{}, fmt.Errorf("price must have at most 2 decimal places")
	}
	return price, nil
}

func parseQuantity(raw json.RawMessage) (int, error) {
	text, ok := numericText(raw)
	if !ok {
		return 0, fmt.Errorf("must be a number")
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("must be a whole number")
	}
	if qty <= 0 {
		return 0, fmt.Errorf("must be greater than zero")
	}
	return qty, nil
}
