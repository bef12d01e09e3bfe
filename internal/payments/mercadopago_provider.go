package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

// MercadoPagoOptions configures the Mercado Pago adapter.
type MercadoPagoOptions struct {
	AccessToken     string
	NotificationURL string
	SuccessURL      string
	FailureURL      string
	CurrencyID      string
}

// MercadoPagoProvider implements Provider on top of the official SDK.
type MercadoPagoProvider struct {
	preferences preference.Client
	payments    payment.Client
	opts        MercadoPagoOptions
}

// NewMercadoPagoProvider builds the adapter from an access token.
func NewMercadoPagoProvider(opts MercadoPagoOptions) (*MercadoPagoProvider, error) {
	if opts.AccessToken == "" {
		return nil, errors.New("payments: mercado pago access token is required")
	}
	if opts.CurrencyID == "" {
		opts.CurrencyID = "BRL"
	}

	cfg, err := config.New(opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config.New: %w", err)
	}

	return &MercadoPagoProvider{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		opts:        opts,
	}, nil
}

// CreatePreference opens a hosted checkout session for the order. The order
// ID travels as the external reference so webhook notifications can be tied
// back to the order without local gateway state.
func (p *MercadoPagoProvider) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	items := make([]preference.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, preference.ItemRequest{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			CurrencyID: p.opts.CurrencyID,
		})
	}

	resp, err := p.preferences.Create(ctx, preference.Request{
		Items:             items,
		ExternalReference: req.OrderID,
		NotificationURL:   p.opts.NotificationURL,
		Payer: &preference.PayerRequest{
			Name:  req.PayerName,
			Email: req.PayerEmail,
		},
		BackURLs: &preference.BackURLsRequest{
			Success: p.opts.SuccessURL,
			Failure: p.opts.FailureURL,
		},
	})
	if err != nil {
		return Preference{}, fmt.Errorf("mercadopago preference.Create: %w", err)
	}

	return Preference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

// LookupPayment fetches the authoritative payment record by gateway ID.
func (p *MercadoPagoProvider) LookupPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return PaymentDetails{}, fmt.Errorf("%w: %q", ErrInvalidPaymentID, paymentID)
	}

	resp, err := p.payments.Get(ctx, id)
	if err != nil {
		return PaymentDetails{}, fmt.Errorf("mercadopago payment.Get: %w", err)
	}

	return PaymentDetails{
		PaymentID:         strconv.Itoa(resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount),
	}, nil
}
