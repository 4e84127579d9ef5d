package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceName tags what a ledger entry sold.
type ServiceName string

const (
	ServiceMembership ServiceName = "Membership"
	ServiceTrainer    ServiceName = "Trainer Assignment"
	ServiceProduct    ServiceName = "Product Purchase"
	ServiceRestaurant ServiceName = "Restaurant Sale"
)

func (s ServiceName) Valid() bool {
	switch s {
	case ServiceMembership, ServiceTrainer, ServiceProduct, ServiceRestaurant:
		return true
	}
	return false
}

// PaymentStatus of a ledger entry.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// PaymentDue is the payment method that leaves a sale open.
const PaymentDue = "Due"

// PaymentStatusFor maps a payment method to the status a new sale gets.
func PaymentStatusFor(method string) PaymentStatus {
	if strings.EqualFold(strings.TrimSpace(method), PaymentDue) {
		return PaymentUnpaid
	}
	return PaymentPaid
}

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidDiscount  = errors.New("discount must be between 0 and 100")
	ErrPaymentMethodReq = errors.New("payment method is required")
)

// Sale is an append-only ledger entry. Everything but the payment fields is
// fixed once written.
type Sale struct {
	ID             string        `json:"id,omitempty"`
	InvoiceID      string        `json:"invoiceId"`
	Service        ServiceName   `json:"serviceName"`
	MemberName     string        `json:"memberName,omitempty"`
	MemberPhone    string        `json:"memberPhone,omitempty"`
	AmountPaid     float64       `json:"amountPaid"`
	Discount       float64       `json:"discount"` // percent, cart sales only
	Quantity       int           `json:"quantity"`
	Category       string        `json:"category,omitempty"`
	PaymentMethod  string        `json:"paymentMethod"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	TimeOfPurchase time.Time     `json:"timeOfPurchase"`
	Payload        Payload       `json:"payload"`
}

// Payload is the kind-specific part of a sale. The concrete type always
// matches Sale.Service, except UnreadablePayload which stands in for data
// that could not be decoded.
type Payload interface {
	Service() ServiceName
}

// MembershipPayload records a plan purchase or renewal.
type MembershipPayload struct {
	MemberID   string    `json:"memberId,omitempty"`
	MemberCode string    `json:"memberCode,omitempty"`
	PlanID     string    `json:"planId,omitempty"`
	Plan       string    `json:"plan"` // "3 months"
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	JoiningFee float64   `json:"joiningFee"`
	Renewal    bool      `json:"renewal"`
}

func (MembershipPayload) Service() ServiceName { return ServiceMembership }

// TrainerPayload records a trainer assignment window.
type TrainerPayload struct {
	MemberID    string    `json:"memberId,omitempty"`
	TrainerID   string    `json:"trainerId,omitempty"`
	TrainerName string    `json:"trainerName"`
	AssignStart time.Time `json:"assignStart"`
	AssignEnd   time.Time `json:"assignEnd"`
}

func (TrainerPayload) Service() ServiceName { return ServiceTrainer }

// CartPayload is the item snapshot of a cart sale.
type CartPayload struct {
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
}

type ProductPayload struct {
	CartPayload
}

func (ProductPayload) Service() ServiceName { return ServiceProduct }

type RestaurantPayload struct {
	CartPayload
}

func (RestaurantPayload) Service() ServiceName { return ServiceRestaurant }

// UnreadablePayload replaces a stored payload that could not be decoded.
type UnreadablePayload struct {
	Kind ServiceName `json:"kind"`
	Err  error       `json:"-"`
}

func (u UnreadablePayload) Service() ServiceName { return u.Kind }

// CartItem is one line of a cart, snapshotted at sale time.
type CartItem struct {
	RefID     string  `json:"ref_id,omitempty" bson:"ref_id,omitempty"`
	Name      string  `json:"name" bson:"name"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	CostPrice float64 `json:"cost_price,omitempty" bson:"cost_price,omitempty"`
	MRP       float64 `json:"mrp,omitempty" bson:"mrp,omitempty"`
	Tax       float64 `json:"tax" bson:"tax"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// LineTotal is unit price times quantity.
func (c CartItem) LineTotal() float64 {
	return decimal.NewFromFloat(c.UnitPrice).Mul(decimal.NewFromInt(int64(c.Quantity))).InexactFloat64()
}

// CartTotals is the priced result of a cart.
type CartTotals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// PriceCart computes subtotal = Σ(unit × qty) and
// total = round(subtotal × (1 − discount/100), 2).
func PriceCart(items []CartItem, discountPct float64) (CartTotals, error) {
	if len(items) == 0 {
		return CartTotals{}, ErrEmptyCart
	}
	if discountPct < 0 || discountPct > 100 {
		return CartTotals{}, ErrInvalidDiscount
	}
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity < 1 {
			return CartTotals{}, ErrInvalidQuantity
		}
		if it.UnitPrice < 0 {
			return CartTotals{}, ErrNegativeAmount
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discountPct).Div(decimal.NewFromInt(100)))
	total := subtotal.Mul(factor).Round(2)
	return CartTotals{
		Subtotal: subtotal.InexactFloat64(),
		Discount: discountPct,
		Total:    total.InexactFloat64(),
	}, nil
}

// TotalQuantity sums quantities across the cart.
func TotalQuantity(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
