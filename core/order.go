package core

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

type (
	// Order is the subset of a Shopify order payload the service reads.
	Order struct {
		ID             json.Number `json:"id"`
		OrderNumber    json.Number `json:"order_number"`
		Email          string      `json:"email"`
		BillingAddress *Address    `json:"billing_address,omitempty"`
		LineItems      []LineItem  `json:"line_items"`
	}

	Address struct {
		FirstName string `json:"first_name"`
	}

	LineItem struct {
		ID         json.Number `json:"id"`
		VariantID  VariantID   `json:"variant_id"`
		Title      string      `json:"title"`
		Quantity   int         `json:"quantity"`
		Properties []Property  `json:"properties"`
	}

	// Property is one customer-supplied key/value pair on a line item.
	Property struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	// DownloadItem is one entry of the customer email.
	DownloadItem struct {
		Title       string
		Quantity    int
		DownloadURL string
	}

	// Notification is everything a notifier needs to email the customer.
	Notification struct {
		Recipient    string
		Subject      string
		CustomerName string
		OrderNumber  string
		Items        []DownloadItem
	}

	// Notifier delivers the download links to the customer.
	Notifier interface {
		Send(ctx context.Context, n Notification) error
	}
)

// VariantID accepts both numeric and string ids from the payload.
type VariantID string

func (v *VariantID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	*v = VariantID(s)
	return nil
}

// CustomerName returns the billing first name, or "Customer".
func (o Order) CustomerName() string {
	if o.BillingAddress != nil && o.BillingAddress.FirstName != "" {
		return o.BillingAddress.FirstName
	}
	return "Customer"
}

// PropertyMap flattens the properties; the last value wins for duplicated names.
func (li LineItem) PropertyMap() map[string]string {
	m := make(map[string]string, len(li.Properties))
	for _, p := range li.Properties {
		m[p.Name] = p.Value
	}
	return m
}
