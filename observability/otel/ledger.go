package otel

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel/metric"
)

// LedgerTotals is the aggregate view reported by ObserveLedger.
type LedgerTotals interface {
	TotalLocked() (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

// ObserveLedger registers gauges that read the ledger totals at every
// collection. Unregister the returned registration before closing the ledger.
func ObserveLedger(meter metric.Meter, src LedgerTotals) (metric.Registration, error) {
	locked, err := meter.Float64ObservableGauge("veledger.escrow.locked",
		metric.WithDescription("Principal held in escrow custody, in base units."))
	if err != nil {
		return nil, err
	}
	power, err := meter.Float64ObservableGauge("veledger.escrow.voting_power",
		metric.WithDescription("Aggregate voting power across all locks."))
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		total, err := src.TotalLocked()
		if err != nil {
			return err
		}
		supply, err := src.TotalSupply()
		if err != nil {
			return err
		}
		o.ObserveFloat64(locked, toFloat(total))
		o.ObserveFloat64(power, toFloat(supply))
		return nil
	}, locked, power)
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
