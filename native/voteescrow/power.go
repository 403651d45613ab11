package voteescrow

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// PowerCurve maps a principal and its remaining lock duration to voting
// power. Implementations must be strictly increasing in both amount and
// lockSeconds over 0 < lockSeconds <= maxSeconds and return zero only for a
// zero amount.
type PowerCurve func(amount *big.Int, lockSeconds, maxSeconds uint64) *big.Int

const (
	CurveLinear  = "linear"
	CurveBoosted = "boosted"
)

var curves = map[string]PowerCurve{
	CurveLinear:  LinearPower,
	CurveBoosted: BoostedPower,
}

// LinearPower weights the principal by the fraction of the maximum lock,
// rounding up so any positive lock carries power.
func LinearPower(amount *big.Int, lockSeconds, maxSeconds uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || lockSeconds == 0 || maxSeconds == 0 {
		return big.NewInt(0)
	}
	if lockSeconds > maxSeconds {
		lockSeconds = maxSeconds
	}
	max := new(big.Int).SetUint64(maxSeconds)
	power := new(big.Int).Mul(amount, new(big.Int).SetUint64(lockSeconds))
	power.Add(power, new(big.Int).Sub(max, big.NewInt(1)))
	return power.Quo(power, max)
}

// BoostedPower grants the principal one-for-one plus a linear boost of up to
// 1x for a maximum lock.
func BoostedPower(amount *big.Int, lockSeconds, maxSeconds uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if lockSeconds > maxSeconds {
		lockSeconds = maxSeconds
	}
	boost := big.NewInt(0)
	if maxSeconds > 0 {
		boost.Mul(amount, new(big.Int).SetUint64(lockSeconds))
		boost.Quo(boost, new(big.Int).SetUint64(maxSeconds))
	}
	return boost.Add(boost, amount)
}

// CurveByName resolves a configured curve. An empty name selects the linear
// curve.
func CurveByName(name string) (PowerCurve, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = CurveLinear
	}
	curve, ok := curves[normalized]
	if !ok {
		return nil, fmt.Errorf("voteescrow: unknown power curve %q (known: %s)", name, strings.Join(CurveNames(), ", "))
	}
	return curve, nil
}

// CurveNames lists the registered curve names.
func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
