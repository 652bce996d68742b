package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/apperrors"
	"github.com/freshfold/freshfold-orders-service/internal/models"
	"github.com/freshfold/freshfold-orders-service/internal/repository"
)

// TaxRate is the flat tax applied to every order.
const TaxRate = 0.08

// PricingEngine computes order quotes from the stored rate table.
type PricingEngine struct {
	rates  repository.RateRepository
	logger zerolog.Logger
}

// NewPricingEngine creates a new pricing engine.
func NewPricingEngine(rates repository.RateRepository, logger zerolog.Logger) *PricingEngine {
	return &PricingEngine{
		rates:  rates,
		logger: logger.With().Str("component", "pricing-engine").Logger(),
	}
}

// ComputePrice validates the selection and returns the price breakdown.
// Subtotal, tax, and total are each rounded independently from the unrounded
// subtotal; summing the rounded subtotal and tax can drift a cent from the
// rounded total on edge values, and the independent form is the contract.
func (e *PricingEngine) ComputePrice(ctx context.Context, serviceType models.ServiceType, items models.OrderItems) (*models.PricingResult, error) {
	if err := ValidateOrderItems(serviceType, items); err != nil {
		return nil, err
	}

	table, err := e.loadRateTable(ctx)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	switch serviceType {
	case models.ServiceWashFold:
		subtotal = items.EstimatedWeight * table.WashFold.PricePerLb
	case models.ServiceExpressWashFold:
		subtotal = items.EstimatedWeight * table.ExpressWashFold.PricePerLb
	case models.ServiceDryCleaning:
		for _, item := range items.DryCleanItems {
			price, ok := table.DryCleaningItems[item.Type]
			if !ok {
				return nil, &apperrors.UnknownItemTypeError{ItemType: item.Type}
			}
			subtotal += float64(item.Quantity) * price
		}
	}

	return &models.PricingResult{
		Subtotal: round2(subtotal),
		Tax:      round2(subtotal * TaxRate),
		Total:    round2(subtotal + subtotal*TaxRate),
	}, nil
}

// loadRateTable reads the rate table, seeding the defaults on first access.
// Concurrent first reads race on the seed write; the ON CONFLICT no-op in
// the repository makes that first-write-wins.
func (e *PricingEngine) loadRateTable(ctx context.Context) (*models.RateTable, error) {
	table, err := e.rates.GetRateTable(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamError("rate table read", err)
	}
	if table != nil {
		return table, nil
	}

	e.logger.Info().Msg("no rate table stored, seeding defaults")

	if err := e.rates.SeedRateTable(ctx, models.DefaultRateTable()); err != nil {
		return nil, apperrors.NewUpstreamError("rate table seed", err)
	}

	table, err = e.rates.GetRateTable(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamError("rate table read", err)
	}
	if table == nil {
		return nil, apperrors.NewUpstreamError("rate table read", fmt.Errorf("table missing after seed"))
	}

	return table, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
