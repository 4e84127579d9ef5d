package invoice

import (
	"bytes"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"
)

var soldAt = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestBuildMembershipSplitsJoiningFee(t *testing.T) {
	inv := Build(domain.Sale{
		InvoiceID:      "IN0001",
		Service:        domain.ServiceMembership,
		MemberName:     "Karma Dorje",
		AmountPaid:     5500,
		PaymentMethod:  "Cash",
		PaymentStatus:  domain.PaymentPaid,
		TimeOfPurchase: soldAt,
		Payload: domain.MembershipPayload{
			MemberCode: "M001", Plan: "3 months", JoiningFee: 5000,
			StartDate: soldAt, EndDate: soldAt.AddDate(0, 3, 0),
		},
	})

	if len(inv.Lines) != 2 {
		t.Fatalf("lines = %+v", inv.Lines)
	}
	if inv.Lines[0].Description != "Membership (3 months)" || inv.Lines[0].Amount != 500 {
		t.Errorf("plan line = %+v", inv.Lines[0])
	}
	if inv.Lines[1].Amount != 5000 {
		t.Errorf("fee line = %+v", inv.Lines[1])
	}
	if inv.Membership == nil || !inv.Membership.ShowJoiningFee || inv.Membership.MemberCode != "M001" {
		t.Errorf("membership block = %+v", inv.Membership)
	}
	if inv.Total != 5500 || inv.Subtotal != 5500 {
		t.Errorf("subtotal/total = %v/%v", inv.Subtotal, inv.Total)
	}
}

func TestBuildRenewalHasNoFeeLine(t *testing.T) {
	inv := Build(domain.Sale{
		Service:    domain.ServiceMembership,
		AmountPaid: 2100,
		Payload:    domain.MembershipPayload{Plan: "3 months", Renewal: true},
	})
	if len(inv.Lines) != 1 || inv.Membership.ShowJoiningFee || !inv.Membership.Renewal {
		t.Errorf("renewal receipt = %+v / %+v", inv.Lines, inv.Membership)
	}
}

func TestBuildCartRecomputesSubtotal(t *testing.T) {
	inv := Build(domain.Sale{
		InvoiceID:  "IN0002",
		Service:    domain.ServiceProduct,
		AmountPaid: 225,
		Discount:   10,
		Payload: domain.ProductPayload{CartPayload: domain.CartPayload{Items: []domain.CartItem{
			{Name: "Protein bar", UnitPrice: 125, Quantity: 2, Tax: 18},
		}}},
	})
	if inv.Subtotal != 250 || inv.DiscountPct != 10 || inv.DiscountAmount != 25 || inv.Total != 225 {
		t.Errorf("totals = %v/%v/%v/%v", inv.Subtotal, inv.DiscountPct, inv.DiscountAmount, inv.Total)
	}
	if len(inv.Lines) != 1 || inv.Lines[0].Amount != 250 || inv.Lines[0].Tax != 18 {
		t.Errorf("lines = %+v", inv.Lines)
	}
}

func TestBuildTrainer(t *testing.T) {
	inv := Build(domain.Sale{
		Service:    domain.ServiceTrainer,
		AmountPaid: 1500,
		Payload:    domain.TrainerPayload{TrainerName: "Tashi", AssignStart: soldAt, AssignEnd: soldAt.AddDate(0, 1, 0)},
	})
	if inv.Trainer == nil || inv.Trainer.TrainerName != "Tashi" {
		t.Fatalf("trainer block = %+v", inv.Trainer)
	}
	if inv.Lines[0].Description != "Personal training (Tashi)" || inv.Total != 1500 {
		t.Errorf("line/total = %+v/%v", inv.Lines[0], inv.Total)
	}
}

func TestBuildUnreadableKeepsLedgerTotal(t *testing.T) {
	inv := Build(domain.Sale{
		Service:    domain.ServiceRestaurant,
		AmountPaid: 280,
		Payload:    domain.UnreadablePayload{Kind: domain.ServiceRestaurant},
	})
	if !inv.Incomplete || len(inv.Lines) != 0 || inv.Total != 280 {
		t.Errorf("incomplete/lines/total = %v/%d/%v", inv.Incomplete, len(inv.Lines), inv.Total)
	}
}

func TestRenderPDF(t *testing.T) {
	sales := []domain.Sale{
		{
			InvoiceID: "IN0001", Service: domain.ServiceMembership, MemberName: "Karma Dorje", AmountPaid: 5500,
			PaymentMethod: "Cash", PaymentStatus: domain.PaymentPaid, TimeOfPurchase: soldAt,
			Payload: domain.MembershipPayload{Plan: "3 months", JoiningFee: 5000, StartDate: soldAt, EndDate: soldAt.AddDate(0, 3, 0)},
		},
		{
			InvoiceID: "IN0002", Service: domain.ServiceRestaurant, AmountPaid: 280,
			PaymentMethod: domain.PaymentDue, PaymentStatus: domain.PaymentUnpaid, TimeOfPurchase: soldAt,
			Payload: domain.RestaurantPayload{CartPayload: domain.CartPayload{Items: []domain.CartItem{
				{Name: "Momo", UnitPrice: 120, Quantity: 2, Tax: 5},
				{Name: "Tea", UnitPrice: 40, Quantity: 1, Tax: 5},
			}}},
		},
		{
			InvoiceID: "IN0003", Service: domain.ServiceProduct, AmountPaid: 99, TimeOfPurchase: soldAt,
			Payload: domain.UnreadablePayload{Kind: domain.ServiceProduct},
		},
	}
	for _, sale := range sales {
		var buf bytes.Buffer
		if err := RenderPDF(&buf, Build(sale)); err != nil {
			t.Fatalf("%s: RenderPDF: %v", sale.InvoiceID, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Errorf("%s: output is not a PDF", sale.InvoiceID)
		}
	}
}
