// Package invoice turns ledger entries into printable receipts.
package invoice

import (
	"fmt"
	"time"

	"tenzinsgym/pos/internal/domain"

	"github.com/shopspring/decimal"
)

// BusinessName is printed at the top of every receipt.
const BusinessName = "Tenzin's Gym"

// Line is one printed row of a receipt.
type Line struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Tax         float64 `json:"tax,omitempty"` // percent
	Amount      float64 `json:"amount"`
}

// MembershipDetails is the plan block of a membership receipt.
type MembershipDetails struct {
	MemberCode     string    `json:"memberCode,omitempty"`
	Plan           string    `json:"plan"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	JoiningFee     float64   `json:"joiningFee"`
	ShowJoiningFee bool      `json:"showJoiningFee"`
	Renewal        bool      `json:"renewal"`
}

// TrainerDetails is the assignment block of a trainer receipt.
type TrainerDetails struct {
	TrainerName string    `json:"trainerName"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// Invoice is the view model of a receipt.
type Invoice struct {
	InvoiceID      string               `json:"invoiceId"`
	Date           time.Time            `json:"date"`
	Service        domain.ServiceName   `json:"service"`
	CustomerName   string               `json:"customerName,omitempty"`
	CustomerPhone  string               `json:"customerPhone,omitempty"`
	PaymentMethod  string               `json:"paymentMethod"`
	PaymentStatus  domain.PaymentStatus `json:"paymentStatus"`
	Lines          []Line               `json:"lines"`
	Subtotal       float64              `json:"subtotal"`
	DiscountPct    float64              `json:"discountPct"`
	DiscountAmount float64              `json:"discountAmount"`
	Total          float64              `json:"total"`
	Membership     *MembershipDetails   `json:"membership,omitempty"`
	Trainer        *TrainerDetails      `json:"trainer,omitempty"`

	// Incomplete is set when the stored line items could not be read; the
	// receipt then carries the ledger total only.
	Incomplete bool `json:"incomplete,omitempty"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Build derives the receipt of a sale.
func Build(sale domain.Sale) Invoice {
	inv := Invoice{
		InvoiceID:     sale.InvoiceID,
		Date:          sale.TimeOfPurchase,
		Service:       sale.Service,
		CustomerName:  sale.MemberName,
		CustomerPhone: sale.MemberPhone,
		PaymentMethod: sale.PaymentMethod,
		PaymentStatus: sale.PaymentStatus,
		Lines:         []Line{},
		Subtotal:      sale.AmountPaid,
		Total:         sale.AmountPaid,
	}

	switch p := sale.Payload.(type) {
	case domain.MembershipPayload:
		planPrice := decimal.NewFromFloat(sale.AmountPaid).Sub(decimal.NewFromFloat(p.JoiningFee))
		inv.Lines = append(inv.Lines, Line{
			Description: fmt.Sprintf("Membership (%s)", p.Plan),
			Quantity:    1,
			UnitPrice:   money(planPrice),
			Amount:      money(planPrice),
		})
		if p.JoiningFee > 0 {
			inv.Lines = append(inv.Lines, Line{
				Description: "Joining fee",
				Quantity:    1,
				UnitPrice:   p.JoiningFee,
				Amount:      p.JoiningFee,
			})
		}
		inv.Membership = &MembershipDetails{
			MemberCode:     p.MemberCode,
			Plan:           p.Plan,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
			JoiningFee:     p.JoiningFee,
			ShowJoiningFee: p.JoiningFee > 0,
			Renewal:        p.Renewal,
		}
	case domain.TrainerPayload:
		inv.Lines = append(inv.Lines, Line{
			Description: fmt.Sprintf("Personal training (%s)", p.TrainerName),
			Quantity:    1,
			UnitPrice:   sale.AmountPaid,
			Amount:      sale.AmountPaid,
		})
		inv.Trainer = &TrainerDetails{
			TrainerName: p.TrainerName,
			StartDate:   p.AssignStart,
			EndDate:     p.AssignEnd,
		}
	case domain.ProductPayload:
		buildCart(&inv, p.CartPayload, sale)
	case domain.RestaurantPayload:
		buildCart(&inv, p.CartPayload, sale)
	case domain.UnreadablePayload:
		inv.Incomplete = true
	}
	return inv
}

// buildCart recomputes the subtotal from the item snapshot; the ledger only
// keeps the discounted total.
func buildCart(inv *Invoice, cart domain.CartPayload, sale domain.Sale) {
	subtotal := decimal.Zero
	for _, it := range cart.Items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
		inv.Lines = append(inv.Lines, Line{
			Description: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Tax:         it.Tax,
			Amount:      money(line),
		})
	}
	total := decimal.NewFromFloat(sale.AmountPaid)
	inv.Subtotal = money(subtotal)
	inv.DiscountPct = sale.Discount
	inv.DiscountAmount = money(subtotal.Sub(total))
	inv.Total = money(total)
}
