package calc

import (
	"fmt"
	"strings"
)

// ECMOMode is the extracorporeal membrane oxygenation configuration.
type ECMOMode string

// Supported ECMO modes.
const (
	ECMOVenoArterial ECMOMode = "VA"
	ECMOVenoVenous   ECMOMode = "VV"
)

// ParseECMOMode accepts VA or VV in any case.
func ParseECMOMode(raw string) (ECMOMode, error) {
	switch ECMOMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ECMOVenoArterial:
		return ECMOVenoArterial, nil
	case ECMOVenoVenous:
		return ECMOVenoVenous, nil
	}
	return "", fmt.Errorf("%w: unknown ECMO mode %q", ErrInvalidInput, raw)
}

func (m ECMOMode) baseFlow() (float64, error) {
	switch m {
	case ECMOVenoArterial:
		return 2.4, nil
	case ECMOVenoVenous:
		return 2.2, nil
	}
	return 0, fmt.Errorf("%w: unknown ECMO mode %q", ErrInvalidInput, string(m))
}

// ECMOFlow returns the recommended ECMO flow in L/min: bsa × base flow
// (VA 2.4, VV 2.2).
func ECMOFlow(heightCm, weightKg float64, mode ECMOMode) (float64, error) {
	base, err := mode.baseFlow()
	if err != nil {
		return 0, err
	}
	bsa, err := BodySurfaceArea(heightCm, weightKg)
	if err != nil {
		return 0, err
	}
	return bsa * base, nil
}

// FlowRange is a recommended flow interval in mL/min.
type FlowRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ECMOFlowRange returns the weight-based flow target used during transport:
// VA 50–100 mL/kg/min, VV 100–150 mL/kg/min.
func ECMOFlowRange(weightKg float64, mode ECMOMode) (FlowRange, error) {
	if err := positive("weight", weightKg); err != nil {
		return FlowRange{}, err
	}
	switch mode {
	case ECMOVenoArterial:
		return FlowRange{Min: weightKg * 50, Max: weightKg * 100}, nil
	case ECMOVenoVenous:
		return FlowRange{Min: weightKg * 100, Max: weightKg * 150}, nil
	}
	return FlowRange{}, fmt.Errorf("%w: unknown ECMO mode %q", ErrInvalidInput, string(mode))
}

// ECMOHematocrit returns the hematocrit (%) after connecting an ECMO circuit:
// hct × bloodVolume / (priming + bloodVolume).
func ECMOHematocrit(hct, primingMl, bloodVolumeMl float64) (float64, error) {
	return MixedHematocrit(hct, primingMl, bloodVolumeMl)
}
