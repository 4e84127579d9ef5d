package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
)

func TestColumnName(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for index, want := range tests {
		if got := ColumnName(index); got != want {
			t.Errorf("ColumnName(%d) = %q, want %q", index, got, want)
		}
	}
}

func TestReportTitle(t *testing.T) {
	june1 := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if got := ReportTitle("Expense", june1, june1.Add(23*time.Hour)); got != "Expense Report for June 1, 2025" {
		t.Errorf("single day title = %q", got)
	}
	if got := ReportTitle("Membership Sales", june1, june1.AddDate(0, 0, 29)); got != "Membership Sales Report from June 1, 2025 to June 30, 2025" {
		t.Errorf("range title = %q", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	table := Table{
		Title:  "Expense Report for June 1, 2025",
		Header: []string{"Name", "Amount"},
		Rows:   [][]interface{}{{"Rent", 30000}, {"Gas", 900.5}},
		Footer: []interface{}{"Total", 30900.5},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Expenses", table); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	checks := map[string]string{
		"A1": "Expense Report for June 1, 2025",
		"A3": "Name",
		"B3": "Amount",
		"A4": "Rent",
		"A5": "Gas",
		"A6": "Total",
	}
	for axis, want := range checks {
		if got := f.GetCellValue("Expenses", axis); got != want {
			t.Errorf("%s = %q, want %q", axis, got, want)
		}
	}
}

func TestWriteXLSXNeedsHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "", Table{Title: "Empty"}); err == nil {
		t.Error("expected an error for a table without header")
	}
}

func TestWriteSalesCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSalesCSV(&buf, []SaleRecord{{
		InvoiceID: "IN0001", Service: "Membership", MemberName: "Karma Dorje", Details: "3 months",
		Quantity: 1, AmountPaid: 5500, PaymentMethod: "Cash", PaymentStatus: "paid",
	}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	wantHeader := "invoice_id,time_of_purchase,service_name,member_name,member_phone,details,quantity,discount,amount_paid,payment_method,payment_status"
	if lines[0] != wantHeader {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "IN0001,,Membership,Karma Dorje,,3 months,1,") {
		t.Errorf("rows = %q", lines[1:])
	}

	buf.Reset()
	if err := WriteSalesCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != wantHeader {
		t.Errorf("empty export = %q, want header only", buf.String())
	}
}
