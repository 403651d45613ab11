package otel

import (
	"context"
	"math/big"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = secret ,broken, =nokey,tenant=veledger")
	if len(got) != 2 {
		t.Fatalf("expected 2 headers, got %v", got)
	}
	if got["api-key"] != "secret" || got["tenant"] != "veledger" {
		t.Fatalf("unexpected headers: %v", got)
	}
}

func TestStartRequiresServiceName(t *testing.T) {
	if _, err := Start(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without a service name")
	}
}

func TestStartWithoutExporters(t *testing.T) {
	tel, err := Start(context.Background(), Config{ServiceName: "veledgerd", Environment: "test"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if tel.Meter != nil {
		t.Fatalf("meter provider installed with metrics disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	var none *Telemetry
	if err := none.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
}

func TestResourceCarriesDeployment(t *testing.T) {
	res, err := Resource(Config{
		ServiceName: "veledgerd",
		Deployment: Deployment{
			LockedToken:  "ve1locked",
			Escrow:       "ve1escrow",
			PowerCurve:   "boosted",
			RewardTokens: []string{"USDC", "WETH"},
		},
	})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	set := res.Set()
	checks := map[attribute.Key]string{
		"service.name":          "veledgerd",
		"veledger.locked_token": "ve1locked",
		"veledger.escrow":       "ve1escrow",
		"veledger.power_curve":  "boosted",
	}
	for key, want := range checks {
		got, ok := set.Value(key)
		if !ok || got.AsString() != want {
			t.Fatalf("%s = %q, want %q", key, got.AsString(), want)
		}
	}
	if _, ok := set.Value("veledger.owner"); ok {
		t.Fatalf("empty owner should be omitted")
	}
	tokens, ok := set.Value("veledger.reward_tokens")
	if !ok || len(tokens.AsStringSlice()) != 2 {
		t.Fatalf("unexpected reward tokens %v", tokens.AsStringSlice())
	}
}

type staticTotals struct {
	locked, power *big.Int
}

func (s staticTotals) TotalLocked() (*big.Int, error) { return s.locked, nil }
func (s staticTotals) TotalSupply() (*big.Int, error) { return s.power, nil }

func TestObserveLedgerReportsTotals(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	src := staticTotals{locked: big.NewInt(3000), power: big.NewInt(1250)}
	reg, err := ObserveLedger(provider.Meter("veledger"), src)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	defer reg.Unregister()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]float64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			gauge, ok := m.Data.(metricdata.Gauge[float64])
			if !ok || len(gauge.DataPoints) != 1 {
				t.Fatalf("unexpected data for %s: %#v", m.Name, m.Data)
			}
			got[m.Name] = gauge.DataPoints[0].Value
		}
	}
	if got["veledger.escrow.locked"] != 3000 || got["veledger.escrow.voting_power"] != 1250 {
		t.Fatalf("unexpected totals %v", got)
	}
}
