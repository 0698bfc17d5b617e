// Package risk encodes guard-rails for how much size the executor may take on.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pivori-app/rubi-studio/internal/terminal"
)

// Limits bounds what the signal executor is allowed to do.
type Limits struct {
	RiskPercent      float64
	MaxOpenPositions int
}

// AllowNewPosition reports whether another position may be opened.
func (l Limits) AllowNewPosition(openCount int) bool {
	return openCount < l.MaxOpenPositions
}

// Size computes the risk-based volume for an order entered at the current
// ask with the given stop loss. The result caps the requested volume, never
// raises it. A zero stop-loss distance returns 0: the risk budget cannot be
// computed and the caller must reject the signal.
func (l Limits) Size(balance, ask, stopLoss, requested float64, spec terminal.SymbolInfo) float64 {
	slDistance := math.Abs(ask - stopLoss)
	if slDistance < spec.TickSize/2 || spec.TickSize <= 0 || spec.TickValue <= 0 {
		return 0
	}

	riskAmount := balance * l.RiskPercent / 100
	volume := riskAmount / (slDistance / spec.TickSize * spec.TickValue)
	if volume > requested {
		volume = requested
	}
	return Normalize(volume, spec)
}

// Normalize clamps a volume to the symbol's [min, max] range and floors it
// to the volume step. Flooring (never rounding up) keeps the result inside
// the risk budget.
func Normalize(volume float64, spec terminal.SymbolInfo) float64 {
	if volume < spec.MinVolume {
		volume = spec.MinVolume
	}
	if spec.MaxVolume > 0 && volume > spec.MaxVolume {
		volume = spec.MaxVolume
	}
	if spec.VolumeStep <= 0 {
		return volume
	}
	v := decimal.NewFromFloat(volume)
	step := decimal.NewFromFloat(spec.VolumeStep)
	floored, _ := v.Div(step).Floor().Mul(step).Float64()
	if floored < spec.MinVolume {
		return spec.MinVolume
	}
	return floored
}
