package calc

import "fmt"

// DistributionFactor is the volume of distribution (L/kg) applied to both
// potassium and bicarbonate deficits.
const DistributionFactor = 0.5

// Electrolyte identifies a correctable electrolyte.
type Electrolyte string

// Correctable electrolytes.
const (
	Potassium   Electrolyte = "potassium"
	Bicarbonate Electrolyte = "bicarbonate"
)

// ElectrolyteDeficit returns (desired − actual) × weight × 0.5 in mEq.
// Negative results mean the measured value already exceeds the target.
func ElectrolyteDeficit(actual, desired, weightKg float64) (float64, error) {
	if err := firstErr(
		nonNegative("actual concentration", actual),
		nonNegative("desired concentration", desired),
		positive("weight", weightKg),
	); err != nil {
		return 0, err
	}
	return (desired - actual) * weightKg * DistributionFactor, nil
}

// PotassiumDeficit returns the potassium deficit in mEq.
func PotassiumDeficit(actual, desired, weightKg float64) (float64, error) {
	return ElectrolyteDeficit(actual, desired, weightKg)
}

// BicarbonateDeficit returns the bicarbonate deficit in mEq.
func BicarbonateDeficit(actual, desired, weightKg float64) (float64, error) {
	return ElectrolyteDeficit(actual, desired, weightKg)
}

// Deficit dispatches on the electrolyte kind.
func Deficit(kind Electrolyte, actual, desired, weightKg float64) (float64, error) {
	switch kind {
	case Potassium:
		return PotassiumDeficit(actual, desired, weightKg)
	case Bicarbonate:
		return BicarbonateDeficit(actual, desired, weightKg)
	}
	return 0, fmt.Errorf("%w: unknown electrolyte %q", ErrInvalidInput, string(kind))
}

// VolumeToAdminister converts a deficit in mEq into mL of a solution with
// the given concentration in mEq/mL.
func VolumeToAdminister(deficitMEq, concentrationMEqPerMl float64) (float64, error) {
	if err := firstErr(finite("deficit", deficitMEq), positive("solution concentration", concentrationMEqPerMl)); err != nil {
		return 0, err
	}
	return divide("solution concentration", deficitMEq, concentrationMEqPerMl)
}
