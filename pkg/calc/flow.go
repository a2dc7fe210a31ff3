package calc

import "math"

// CardiacIndexSelector picks the cardiac index used for pump flow.
type CardiacIndexSelector int

// Cardiac index selectors. Unset and unrecognised values fall back to the
// custom override when positive, then to 2.6 L/min/m².
const (
	CardiacIndexUnset CardiacIndexSelector = iota
	CardiacIndex24
	CardiacIndex26
	CardiacIndex28
	CardiacIndexCustom
)

// DefaultCardiacIndex is used when no selector or override resolves.
const DefaultCardiacIndex = 2.6

// ParseCardiacIndexSelector maps form values ("2.4", "2.6", "2.8", "custom").
func ParseCardiacIndexSelector(raw string) CardiacIndexSelector {
	switch raw {
	case "2.4":
		return CardiacIndex24
	case "2.6":
		return CardiacIndex26
	case "2.8":
		return CardiacIndex28
	case "custom":
		return CardiacIndexCustom
	}
	return CardiacIndexUnset
}

// Value resolves the selector to L/min/m².
func (c CardiacIndexSelector) Value(custom float64) float64 {
	switch c {
	case CardiacIndex24:
		return 2.4
	case CardiacIndex26:
		return 2.6
	case CardiacIndex28:
		return 2.8
	}
	if custom > 0 && !math.IsInf(custom, 0) {
		return custom
	}
	return DefaultCardiacIndex
}

// PumpFlow returns the bypass pump flow in L/min as
// BodySurfaceArea(ReferenceHeightCm, weight) × cardiacIndex. The reference
// height stands in for the patient's height.
func PumpFlow(weightKg, cardiacIndex float64) (float64, error) {
	if err := positive("cardiac index", cardiacIndex); err != nil {
		return 0, err
	}
	bsa, err := BodySurfaceArea(ReferenceHeightCm, weightKg)
	if err != nil {
		return 0, err
	}
	return bsa * cardiacIndex, nil
}

// CerebralFlow estimates cerebral blood flow in mL/min (50 mL/min/kg).
func CerebralFlow(weightKg float64) (float64, error) {
	if err := positive("weight", weightKg); err != nil {
		return 0, err
	}
	return weightKg * 50, nil
}

// CoronaryFlow estimates coronary blood flow in mL/min (60 mL/min/kg).
func CoronaryFlow(weightKg float64) (float64, error) {
	if err := positive("weight", weightKg); err != nil {
		return 0, err
	}
	return weightKg * 60, nil
}

// ValveZScore standardises a measured valve annulus against the expected
// diameter 10 + 20 × bsa mm.
func ValveZScore(diameterMm, bsa float64) (float64, error) {
	if err := firstErr(positive("annulus diameter", diameterMm), positive("bsa", bsa)); err != nil {
		return 0, err
	}
	expected := 10 + bsa*20
	return (diameterMm - expected) / 3, nil
}
