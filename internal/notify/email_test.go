package notify

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestOrderEmail(t *testing.T) {
	subject, html, err := OrderEmail(OrderSummary{
		UserName:         "Asha",
		OrderType:        enum.OrderTypeDelivery,
		TotalAmount:      "105",
		UPITransactionID: "412345678901",
		Items: []SummaryItem{
			{Name: "Maggi", Quantity: 2},
			{Name: "Chai", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if subject != "New Order from Asha" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{
		"<h1>New Order Received!</h1>",
		"<strong>From:</strong> Asha",
		"<strong>Order Type:</strong> delivery",
		"₹105",
		"<strong>UPI ID:</strong> 412345678901",
		"<li>Maggi x 2</li>",
		"<li>Chai x 1</li>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q\n%s", want, html)
		}
	}
}

func TestOrderEmail_OmitsUPIForTakeaway(t *testing.T) {
	_, html, err := OrderEmail(OrderSummary{
		UserName:         "Ravi",
		OrderType:        enum.OrderTypeTakeaway,
		TotalAmount:      "60",
		UPITransactionID: enum.UPIReferenceNone,
		Items:            []SummaryItem{{Name: "Samosa", Quantity: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "UPI ID") {
		t.Errorf("UPI line should be omitted:\n%s", html)
	}
}

func TestOrderEmail_EscapesInput(t *testing.T) {
	_, html, err := OrderEmail(OrderSummary{
		UserName:    "<script>alert(1)</script>",
		OrderType:   enum.OrderTypeTakeaway,
		TotalAmount: "10",
		Items:       []SummaryItem{{Name: "<b>Tea</b>", Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>Tea</b>") {
		t.Errorf("user input should be escaped:\n%s", html)
	}
}

func TestSummaryFromOrder(t *testing.T) {
	var total pgtype.Numeric
	_ = total.Scan("105.00")
	o := database.Order{
		ID:               uuid.New(),
		UserName:         "Asha",
		OrderType:        enum.OrderTypeDelivery,
		TotalAmount:      total,
		UpiTransactionID: "412345678901",
		Items: []database.OrderLine{
			{Name: "Maggi", Quantity: 2},
		},
	}

	s := SummaryFromOrder(o)
	if s.TotalAmount != "105" {
		t.Errorf("total = %q, want 105", s.TotalAmount)
	}
	if len(s.Items) != 1 || s.Items[0].Name != "Maggi" || s.Items[0].Quantity != 2 {
		t.Errorf("items = %+v", s.Items)
	}
}
