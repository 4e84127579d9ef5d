package export

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// SaleRecord is one ledger row in the CSV export.
type SaleRecord struct {
	InvoiceID      string  `csv:"invoice_id"`
	TimeOfPurchase string  `csv:"time_of_purchase"`
	Service        string  `csv:"service_name"`
	MemberName     string  `csv:"member_name"`
	MemberPhone    string  `csv:"member_phone"`
	Details        string  `csv:"details"`
	Quantity       int     `csv:"quantity"`
	Discount       float64 `csv:"discount"`
	AmountPaid     float64 `csv:"amount_paid"`
	PaymentMethod  string  `csv:"payment_method"`
	PaymentStatus  string  `csv:"payment_status"`
}

// WriteSalesCSV writes records with a header line.
func WriteSalesCSV(w io.Writer, records []SaleRecord) error {
	if records == nil {
		records = []SaleRecord{}
	}
	if err := gocsv.Marshal(&records, w); err != nil {
		return errors.Wrap(err, "export: write sales csv")
	}
	return nil
}
