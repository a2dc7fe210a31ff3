package calc

import "math"

// DuBois coefficients.
const (
	duboisCoefficient    = 0.007184
	duboisHeightExponent = 0.725
	duboisWeightExponent = 0.425
	mostellerDenominator = 3600.0
	ReferenceHeightCm    = 170.0
)

// BodySurfaceArea estimates body surface area in m² with the DuBois formula
// 0.007184 × height^0.725 × weight^0.425. The browser calculator service
// scaled the same powers by 1/3131; this uses the standard DuBois coefficient
// that its adult bypass view applies.
func BodySurfaceArea(heightCm, weightKg float64) (float64, error) {
	if err := firstErr(positive("height", heightCm), positive("weight", weightKg)); err != nil {
		return 0, err
	}
	return duboisCoefficient * math.Pow(heightCm, duboisHeightExponent) * math.Pow(weightKg, duboisWeightExponent), nil
}

// MostellerBSA estimates body surface area in m² as sqrt(height × weight / 3600).
func MostellerBSA(heightCm, weightKg float64) (float64, error) {
	if err := firstErr(positive("height", heightCm), positive("weight", weightKg)); err != nil {
		return 0, err
	}
	return math.Sqrt(heightCm * weightKg / mostellerDenominator), nil
}
