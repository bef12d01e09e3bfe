package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidPaymentID marks a payment id the gateway can never resolve, so
// callers can drop the notification instead of retrying it.
var ErrInvalidPaymentID = errors.New("payments: invalid payment id")

// PreferenceItem describes a single order line to list on the gateway's
// hosted checkout page.
type PreferenceItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PreferenceRequest captures the payload required to open a checkout
// preference for one order.
type PreferenceRequest struct {
	OrderID     string
	OrderNumber string
	PayerName   string
	PayerEmail  string
	Items       []PreferenceItem
}

// Preference is the gateway checkout session handed back to the client.
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// PaymentDetails is the authoritative payment record fetched from the
// gateway during reconciliation. Status and StatusDetail carry the raw
// gateway vocabulary; mapping to order states happens in the service layer.
type PaymentDetails struct {
	PaymentID         string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
}

// Provider defines the contract for payment gateway adapters.
type Provider interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
	LookupPayment(ctx context.Context, paymentID string) (PaymentDetails, error)
}
