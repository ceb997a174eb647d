package checkout

import "github.com/shopspring/decimal"

// ShippingFee is the flat delivery charge added to every order.
var ShippingFee = decimal.NewFromInt(10000)

// LineSubtotal returns quantity × price.
func LineSubtotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Totals sums the line subtotals and adds the shipping fee.
func Totals(lines []LineItem) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineSubtotal(line.Quantity, line.Price))
	}
	return subtotal, subtotal.Add(ShippingFee)
}
