package risk

import (
	"math"
	"testing"

	"github.com/pivori-app/rubi-studio/internal/terminal"
)

func spec() terminal.SymbolInfo {
	return terminal.SymbolInfo{
		Name:       "TEST",
		TickSize:   1,
		TickValue:  1,
		MinVolume:  0.01,
		MaxVolume:  100,
		VolumeStep: 0.01,
	}
}

func TestAllowNewPosition(t *testing.T) {
	limits := Limits{MaxOpenPositions: 5}
	if !limits.AllowNewPosition(4) {
		t.Fatalf("expected capacity at 4/5")
	}
	if limits.AllowNewPosition(5) {
		t.Fatalf("expected no capacity at 5/5")
	}
}

func TestSizeRiskFormula(t *testing.T) {
	// balance=10000, risk=2% => riskAmount=200; slDistance=50, tickSize=1,
	// tickValue=1 => raw volume = 200/50 = 4.
	limits := Limits{RiskPercent: 2}
	got := limits.Size(10000, 150, 100, 10, spec())
	if math.Abs(got-4) > 1e-9 {
		t.Fatalf("expected volume 4, got %.4f", got)
	}
}

func TestSizeNeverExceedsRequested(t *testing.T) {
	limits := Limits{RiskPercent: 2}
	// Raw computed volume is 4; the signal only asked for 1.5.
	got := limits.Size(10000, 150, 100, 1.5, spec())
	if got > 1.5 {
		t.Fatalf("sizing increased exposure: %.4f", got)
	}
	if math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("expected requested volume 1.5, got %.4f", got)
	}
}

func TestSizeZeroStopDistance(t *testing.T) {
	limits := Limits{RiskPercent: 2}
	if got := limits.Size(10000, 150, 150, 1, spec()); got != 0 {
		t.Fatalf("zero stop distance must size to zero, got %.4f", got)
	}
}

func TestNormalizeFloorsToStep(t *testing.T) {
	s := spec()
	s.VolumeStep = 0.1

	if got := Normalize(0.19, s); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("expected floor to 0.1, got %.4f", got)
	}
	// Binary-float trap: 0.3 is not representable; decimal flooring must not
	// drop it to 0.2.
	if got := Normalize(0.3, s); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("expected 0.3 to survive flooring, got %.4f", got)
	}
}

func TestNormalizeClampsToRange(t *testing.T) {
	s := spec()
	if got := Normalize(0.001, s); math.Abs(got-s.MinVolume) > 1e-9 {
		t.Fatalf("expected clamp to min %.2f, got %.4f", s.MinVolume, got)
	}
	if got := Normalize(500, s); math.Abs(got-s.MaxVolume) > 1e-9 {
		t.Fatalf("expected clamp to max %.2f, got %.4f", s.MaxVolume, got)
	}
}
