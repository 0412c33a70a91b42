package notify

import (
	"bytes"
	"html/template"

	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
)

// OrderSummary is what the admin order email shows. Field names follow the
// relay endpoint's request body.
type OrderSummary struct {
	UserName         string        `json:"userName" validate:"trimmed_required"`
	OrderType        string        `json:"orderType" validate:"required"`
	TotalAmount      string        `json:"totalAmount" validate:"required"`
	UPITransactionID string        `json:"upiTransactionId"`
	Items            []SummaryItem `json:"items" validate:"required,min=1,dive"`
}

type SummaryItem struct {
	Name     string `json:"name" validate:"required"`
	Quantity int32  `json:"quantity" validate:"gte=1"`
}

// SummaryFromOrder builds the email summary for a placed order.
func SummaryFromOrder(o database.Order) OrderSummary {
	s := OrderSummary{
		UserName:         o.UserName,
		OrderType:        o.OrderType,
		TotalAmount:      database.NumericToDecimal(o.TotalAmount).String(),
		UPITransactionID: o.UpiTransactionID,
		Items:            make([]SummaryItem, 0, len(o.Items)),
	}
	for _, l := range o.Items {
		s.Items = append(s.Items, SummaryItem{Name: l.Name, Quantity: l.Quantity})
	}
	return s
}

var orderEmailTmpl = template.Must(template.New("order").Parse(`
<h1>New Order Received!</h1>
<p><strong>From:</strong> {{.UserName}}</p>
<p><strong>Order Type:</strong> {{.OrderType}}</p>
<p><strong>Total Amount:</strong> ₹{{.TotalAmount}}</p>
{{- if .ShowUPI}}
<p><strong>UPI ID:</strong> {{.UPITransactionID}}</p>
{{- end}}
<hr />
<h3>Order Summary:</h3>
<ul>
{{- range .Items}}
<li>{{.Name}} x {{.Quantity}}</li>
{{- end}}
</ul>
`))

// OrderEmail renders the subject and HTML body of the admin order email.
// The UPI line is left out for orders without a reference.
func OrderEmail(s OrderSummary) (subject, html string, err error) {
	var buf bytes.Buffer
	err = orderEmailTmpl.Execute(&buf, struct {
		OrderSummary
		ShowUPI bool
	}{s, s.UPITransactionID != "" && s.UPITransactionID != enum.UPIReferenceNone})
	if err != nil {
		return "", "", err
	}
	return "New Order from " + s.UserName, buf.String(), nil
}
