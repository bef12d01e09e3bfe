package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/vitrineshop/api/internal/domain"
	"github.com/vitrineshop/api/internal/repositories"
)

const (
	pickupRegionCode = "PICKUP"
	pickupRegionName = "Pickup in store"
)

// shippingAmountEpsilon absorbs client-side rounding when comparing submitted
// shipping amounts against the server-computed price.
var shippingAmountEpsilon = decimal.NewFromFloat(0.01)

var (
	// ErrShippingInvalidInput signals a malformed postal code or selection.
	ErrShippingInvalidInput = errors.New("shipping: invalid input")
	// ErrShippingRegionNotFound indicates no configured region covers the postal code.
	ErrShippingRegionNotFound = errors.New("shipping: region not found")
	// ErrShippingAmountMismatch indicates the submitted amount does not match the server-computed price.
	ErrShippingAmountMismatch = errors.New("shipping: amount mismatch")
	// ErrShippingUnavailable indicates the region store could not be reached.
	ErrShippingUnavailable = errors.New("shipping: unavailable")
)

// postalRange maps a numeric postal-code interval to a region code. The table
// only decides which region a code belongs to; price, ETA and threshold come
// from the persisted region row, so admin price edits apply without a deploy.
type postalRange struct {
	start      int
	end        int
	regionCode string
}

var defaultPostalRanges = []postalRange{
	{start: 1000000, end: 39999999, regionCode: "BR-SE"},
	{start: 40000000, end: 65999999, regionCode: "BR-NE"},
	{start: 66000000, end: 69999999, regionCode: "BR-N"},
	{start: 70000000, end: 79999999, regionCode: "BR-CO"},
	{start: 80000000, end: 99999999, regionCode: "BR-S"},
}

// ShippingServiceDeps bundles collaborators required to construct the shipping service.
type ShippingServiceDeps struct {
	Regions repositories.ShippingRegionRepository
	Ranges  []postalRange
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type shippingService struct {
	regions repositories.ShippingRegionRepository
	ranges  []postalRange
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewShippingService constructs a ShippingService validating required dependencies.
func NewShippingService(deps ShippingServiceDeps) (ShippingService, error) {
	if deps.Regions == nil {
		return nil, errors.New("shipping service: region repository is required")
	}
	ranges := deps.Ranges
	if len(ranges) == 0 {
		ranges = defaultPostalRanges
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &shippingService{regions: deps.Regions, ranges: ranges, logger: logger}, nil
}

// Resolve maps a postal code to the priced shipping option of its region.
func (s *shippingService) Resolve(ctx context.Context, postalCode string) (ShippingOption, error) {
	code, err := normalizePostalCode(postalCode)
	if err != nil {
		return ShippingOption{}, err
	}

	regionCode, ok := s.regionForPostalCode(code)
	if !ok {
		return ShippingOption{}, fmt.Errorf("%w: no region for postal code", ErrShippingRegionNotFound)
	}

	region, err := s.regions.FindByCode(ctx, regionCode)
	if err != nil {
		return ShippingOption{}, s.mapRepositoryError(err)
	}
	if !region.Active {
		return ShippingOption{}, fmt.Errorf("%w: region %s is inactive", ErrShippingRegionNotFound, region.Code)
	}

	return ShippingOption{
		RegionCode:            region.Code,
		RegionName:            region.Name,
		Price:                 region.Price,
		EstimatedDays:         region.EstimatedDays,
		FreeShippingThreshold: region.FreeShippingThreshold,
	}, nil
}

// Quote returns the delivery option for the postal code plus the synthetic
// pickup option.
func (s *shippingService) Quote(ctx context.Context, postalCode string) ([]ShippingOption, error) {
	option, err := s.Resolve(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	return []ShippingOption{option, pickupOption()}, nil
}

// ValidateForCheckout recomputes the authoritative shipping amount for the
// selection and rejects any submitted amount further than the epsilon away.
// This is the integrity boundary against tampered clients.
func (s *shippingService) ValidateForCheckout(ctx context.Context, cmd ValidateShippingCommand) (ShippingValidation, error) {
	if cmd.PickupInStore {
		if cmd.SubmittedAmount.Abs().Cmp(shippingAmountEpsilon) > 0 {
			return ShippingValidation{}, fmt.Errorf("%w: pickup in store is free", ErrShippingAmountMismatch)
		}
		return ShippingValidation{
			Snapshot: domain.ShippingSnapshot{
				RegionCode:    pickupRegionCode,
				RegionName:    pickupRegionName,
				PickupInStore: true,
			},
			Amount: decimal.Zero,
		}, nil
	}

	option, err := s.Resolve(ctx, cmd.PostalCode)
	if err != nil {
		return ShippingValidation{}, err
	}

	if selected := strings.TrimSpace(cmd.SelectedCode); selected != "" && selected != option.RegionCode {
		return ShippingValidation{}, fmt.Errorf("%w: selected region %s does not match postal code", ErrShippingInvalidInput, selected)
	}

	expected := option.Price
	if option.FreeShippingThreshold.IsPositive() && cmd.CartSubtotal.Cmp(option.FreeShippingThreshold) >= 0 {
		expected = decimal.Zero
	}

	if cmd.SubmittedAmount.Sub(expected).Abs().Cmp(shippingAmountEpsilon) > 0 {
		s.logger(ctx, "shipping.amount.mismatch", map[string]any{
			"region":    option.RegionCode,
			"expected":  expected.StringFixed(2),
			"submitted": cmd.SubmittedAmount.StringFixed(2),
		})
		return ShippingValidation{}, fmt.Errorf("%w: expected %s", ErrShippingAmountMismatch, expected.StringFixed(2))
	}

	return ShippingValidation{
		Snapshot: domain.ShippingSnapshot{
			RegionCode:    option.RegionCode,
			RegionName:    option.RegionName,
			EstimatedDays: option.EstimatedDays,
		},
		Amount: expected,
	}, nil
}

func (s *shippingService) regionForPostalCode(code int) (string, bool) {
	for _, r := range s.ranges {
		if code >= r.start && code <= r.end {
			return r.regionCode, true
		}
	}
	return "", false
}

func (s *shippingService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrShippingRegionNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrShippingUnavailable, err)
		}
	}
	return err
}

// normalizePostalCode strips non-digit characters and requires exactly eight
// digits.
func normalizePostalCode(postalCode string) (int, error) {
	var digits strings.Builder
	for _, r := range postalCode {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 8 {
		return 0, fmt.Errorf("%w: postal code must have 8 digits", ErrShippingInvalidInput)
	}

	code := 0
	for _, r := range digits.String() {
		code = code*10 + int(r-'0')
	}
	return code, nil
}

func pickupOption() ShippingOption {
	return ShippingOption{
		RegionCode:    pickupRegionCode,
		RegionName:    pickupRegionName,
		Price:         decimal.Zero,
		PickupInStore: true,
	}
}
