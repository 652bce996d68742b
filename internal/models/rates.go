package models

// WeightRate prices a weight-based service per pound.
type WeightRate struct {
	PricePerLb float64 `json:"pricePerLb"`
}

// RateTable holds the full pricing configuration: per-pound rates for the
// weight-based services and a per-item price for each dry-cleaning garment
// kind.
type RateTable struct {
	WashFold         WeightRate         `json:"washFold"`
	ExpressWashFold  WeightRate         `json:"expressWashFold"`
	DryCleaningItems map[string]float64 `json:"dryCleaningItems"`
}

// DefaultRateTable returns the launch pricing, seeded on first use when no
// table is stored yet.
func DefaultRateTable() *RateTable {
	return &RateTable{
		WashFold:        WeightRate{PricePerLb: 1.99},
		ExpressWashFold: WeightRate{PricePerLb: 2.99},
		DryCleaningItems: map[string]float64{
			"suit-jacket": 11.99,
			"leather":     11.99,
			"furs":        11.99,
			"dress-gown":  11.99,
			"shirt":       11.99,
			"pants":       11.99,
			"sweater":     11.99,
			"other":       11.99,
		},
	}
}
