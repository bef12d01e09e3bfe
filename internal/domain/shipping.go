package domain

import "github.com/shopspring/decimal"

// ShippingRegion is the persisted, admin-editable pricing row for a delivery
// region. The static postal-code range table only decides which region a code
// belongs to; price, ETA and threshold always come from this row.
type ShippingRegion struct {
	Code                  string
	Name                  string
	Price                 decimal.Decimal
	EstimatedDays         int
	FreeShippingThreshold decimal.Decimal
	Active                bool
}

// ShippingOption is the resolved quote returned for a postal code or for
// pickup in store.
type ShippingOption struct {
	RegionCode    string
	RegionName    string
	Price         decimal.Decimal
	EstimatedDays int
	// FreeShippingThreshold is zero when the option never waives the price
	// (pickup in store is already free).
	FreeShippingThreshold decimal.Decimal
	PickupInStore         bool
}
