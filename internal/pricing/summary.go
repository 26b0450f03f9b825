package pricing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Customer is the contact block printed on an order summary.
type Customer struct {
	Name          string
	Phone         string
	Address       string
	Note          string
	PaymentMethod string
}

// Order is what RenderSummary turns into text.
type Order struct {
	SupermarketName string
	Customer        Customer
	Quote           Quote
}

// RenderSummary produces the line-structured order text sent to the
// supermarket. Output depends only on order, so equal orders render equally.
func RenderSummary(order Order) string {
	var b strings.Builder
	q := order.Quote.FeeQuote.Rounded()

	fmt.Fprintf(&b, "New order - %s\n", orDash(order.SupermarketName))
	fmt.Fprintf(&b, "Customer: %s\n", orDash(order.Customer.Name))
	if phone := strings.TrimSpace(order.Customer.Phone); phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", phone)
	}
	fmt.Fprintf(&b, "Address: %s\n", orDash(order.Customer.Address))
	fmt.Fprintf(&b, "Note: %s\n", orDash(order.Customer.Note))
	fmt.Fprintf(&b, "Payment method: %s\n", orDash(order.Customer.PaymentMethod))
	b.WriteString("\nItems:\n")
	for _, line := range order.Quote.Totals.Lines {
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n",
			line.Item.Quantity,
			line.Item.Name,
			money(line.Resolution.UnitPrice),
			money(line.LineTotal),
		)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", money(q.Subtotal))
	fmt.Fprintf(&b, "Picking fee: %s\n", money(q.PickingFee))
	if order.Quote.Fees.DistanceAvailable {
		fmt.Fprintf(&b, "Delivery fee: %s\n", money(q.DeliveryFee))
	} else {
		fmt.Fprintf(&b, "Delivery fee: %s (distance unavailable, to be confirmed)\n", money(q.DeliveryFee))
	}
	fmt.Fprintf(&b, "Total: %s", money(q.Total))

	return b.String()
}

// WhatsAppURL builds the click-to-chat link that pre-fills text for phone.
// Non-digit characters are stripped from the phone number.
func WhatsAppURL(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, escaped)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orDash(s string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return "-"
}
