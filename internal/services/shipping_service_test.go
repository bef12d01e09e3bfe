package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/repositories"
)

func regionFixture() domain.ShippingRegion {
	return domain.ShippingRegion{
		Code:                  "BR-SE",
		Name:                  "Sudeste",
		Price:                 decimal.NewFromFloat(15.00),
		EstimatedDays:         5,
		FreeShippingThreshold: decimal.NewFromFloat(150.00),
		Active:                true,
	}
}

func newTestShippingService(t *testing.T, regions *stubRegionRepo) ShippingService {
	t.Helper()
	svc, err := NewShippingService(ShippingServiceDeps{Regions: regions})
	if err != nil {
		t.Fatalf("new shipping service: %v", err)
	}
	return svc
}

func TestShippingServiceResolve(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{
		findFn: func(_ context.Context, code string) (domain.ShippingRegion, error) {
			if code != "BR-SE" {
				t.Fatalf("unexpected region code %s", code)
			}
			return regionFixture(), nil
		},
	})

	option, err := svc.Resolve(ctx, "01310-100")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if option.RegionCode != "BR-SE" {
		t.Fatalf("unexpected region %s", option.RegionCode)
	}
	if got := option.Price.StringFixed(2); got != "15.00" {
		t.Fatalf("unexpected price %s", got)
	}
}

func TestShippingServiceResolveInvalidPostalCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{})

	for _, code := range []string{"", "1234567", "123456789", "abcdefgh"} {
		if _, err := svc.Resolve(ctx, code); !errors.Is(err, ErrShippingInvalidInput) {
			t.Fatalf("postal code %q: expected ErrShippingInvalidInput got %v", code, err)
		}
	}
}

func TestShippingServiceResolveInactiveRegion(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{
		findFn: func(_ context.Context, _ string) (domain.ShippingRegion, error) {
			region := regionFixture()
			region.Active = false
			return region, nil
		},
	})

	if _, err := svc.Resolve(ctx, "01310100"); !errors.Is(err, ErrShippingRegionNotFound) {
		t.Fatalf("expected ErrShippingRegionNotFound got %v", err)
	}
}

func TestShippingServiceResolveRegionStoreDown(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{
		findFn: func(_ context.Context, _ string) (domain.ShippingRegion, error) {
			return domain.ShippingRegion{}, repositories.NewUnavailable("shipping_regions.find", errors.New("connection refused"))
		},
	})

	if _, err := svc.Resolve(ctx, "01310100"); !errors.Is(err, ErrShippingUnavailable) {
		t.Fatalf("expected ErrShippingUnavailable got %v", err)
	}
}

func TestShippingServiceQuoteIncludesPickup(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{
		findFn: func(_ context.Context, _ string) (domain.ShippingRegion, error) {
			return regionFixture(), nil
		},
	})

	options, err := svc.Quote(ctx, "01310100")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options got %d", len(options))
	}
	pickup := options[1]
	if !pickup.PickupInStore || !pickup.Price.IsZero() {
		t.Fatalf("expected free pickup option got %+v", pickup)
	}
}

func TestShippingServiceValidateForCheckout(t *testing.T) {
	ctx := context.Background()
	svc := newTestShippingService(t, &stubRegionRepo{
		findFn: func(_ context.Context, _ string) (domain.ShippingRegion, error) {
			return regionFixture(), nil
		},
	})

	cases := []struct {
		name       string
		cmd        ValidateShippingCommand
		wantErr    error
		wantCost   string
		wantCode   string
		wantPickup bool
	}{
		{
			name: "exact price accepted",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SubmittedAmount: decimal.NewFromFloat(15.00),
				CartSubtotal:    decimal.NewFromFloat(50.00),
			},
			wantCost: "15.00",
			wantCode: "BR-SE",
		},
		{
			name: "within epsilon accepted",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SubmittedAmount: decimal.NewFromFloat(15.01),
				CartSubtotal:    decimal.NewFromFloat(50.00),
			},
			wantCost: "15.00",
			wantCode: "BR-SE",
		},
		{
			name: "free shipping over threshold",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SubmittedAmount: decimal.Zero,
				CartSubtotal:    decimal.NewFromFloat(200.00),
			},
			wantCost: "0.00",
			wantCode: "BR-SE",
		},
		{
			name: "full price over threshold rejected",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SubmittedAmount: decimal.NewFromFloat(15.00),
				CartSubtotal:    decimal.NewFromFloat(200.00),
			},
			wantErr: ErrShippingAmountMismatch,
		},
		{
			name: "tampered amount rejected",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SubmittedAmount: decimal.NewFromFloat(1.00),
				CartSubtotal:    decimal.NewFromFloat(50.00),
			},
			wantErr: ErrShippingAmountMismatch,
		},
		{
			name: "selected region must match postal code",
			cmd: ValidateShippingCommand{
				PostalCode:      "01310100",
				SelectedCode:    "BR-S",
				SubmittedAmount: decimal.NewFromFloat(15.00),
				CartSubtotal:    decimal.NewFromFloat(50.00),
			},
			wantErr: ErrShippingInvalidInput,
		},
		{
			name: "pickup is free",
			cmd: ValidateShippingCommand{
				PickupInStore:   true,
				SubmittedAmount: decimal.Zero,
				CartSubtotal:    decimal.NewFromFloat(50.00),
			},
			wantCost:   "0.00",
			wantCode:   "PICKUP",
			wantPickup: true,
		},
		{
			name: "paid pickup rejected",
			cmd: ValidateShippingCommand{
				PickupInStore:   true,
				SubmittedAmount: decimal.NewFromFloat(10.00),
			},
			wantErr: ErrShippingAmountMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validation, err := svc.ValidateForCheckout(ctx, tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got := validation.Amount.StringFixed(2); got != tc.wantCost {
				t.Fatalf("expected amount %s got %s", tc.wantCost, got)
			}
			if validation.Snapshot.RegionCode != tc.wantCode {
				t.Fatalf("expected region %s got %s", tc.wantCode, validation.Snapshot.RegionCode)
			}
			if validation.Snapshot.PickupInStore != tc.wantPickup {
				t.Fatalf("expected pickup %v got %v", tc.wantPickup, validation.Snapshot.PickupInStore)
			}
		})
	}
}

func TestNormalizePostalCodeRanges(t *testing.T) {
	svc := &shippingService{ranges: defaultPostalRanges}

	cases := []struct {
		postal string
		region string
	}{
		{"01310-100", "BR-SE"},
		{"40026-010", "BR-NE"},
		{"66010-000", "BR-N"},
		{"70040-010", "BR-CO"},
		{"80010-000", "BR-S"},
	}
	for _, tc := range cases {
		code, err := normalizePostalCode(tc.postal)
		if err != nil {
			t.Fatalf("normalize %s: %v", tc.postal, err)
		}
		region, ok := svc.regionForPostalCode(code)
		if !ok || region != tc.region {
			t.Fatalf("postal %s: expected region %s got %s (%v)", tc.postal, tc.region, region, ok)
		}
	}

	if _, ok := svc.regionForPostalCode(100); ok {
		t.Fatalf("expected no region below the first range")
	}
}
