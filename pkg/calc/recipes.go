package calc

import "perfusioncore/pkg/domain"

// Pediatric flow fractions of the total pump flow.
const (
	pediatricCerebralFraction = 0.15
	pediatricCardiacFraction  = 0.05
)

// AdultBypassInput is the operator input for an adult cardiopulmonary bypass
// calculation. Heights are in cm, weights in kg, volumes in mL and
// hematocrits in percent.
type AdultBypassInput struct {
	Weight             float64
	Height             float64
	CurrentHematocrit  float64
	DesiredHematocrit  float64
	PrimingVolume      float64
	Volume             VolumeSelector
	CustomVolumePerKg  float64
	CardiacIndex       CardiacIndexSelector
	CustomCardiacIndex float64
}

// AdultBypass composes BSA, blood volume, pump flow, dilutional hematocrit
// and regional flows into a calculation snapshot. BSA uses the patient's
// height; pump flow uses ReferenceHeightCm.
func AdultBypass(in AdultBypassInput) (domain.CalculationInputs, domain.CalculationOutputs, error) {
	if err := percentage("desired hematocrit", in.DesiredHematocrit); err != nil {
		return domain.CalculationInputs{}, domain.CalculationOutputs{}, err
	}
	ci := in.CardiacIndex.Value(in.CustomCardiacIndex)
	inputs := domain.CalculationInputs{
		Weight:            in.Weight,
		Height:            in.Height,
		CurrentHematocrit: in.CurrentHematocrit,
		DesiredHematocrit: in.DesiredHematocrit,
		PrimingVolume:     in.PrimingVolume,
		BloodVolumeMethod: in.Volume.String(),
		CardiacIndex:      ci,
	}

	var (
		out domain.CalculationOutputs
		err error
	)
	if out.BSA, err = BodySurfaceArea(in.Height, in.Weight); err != nil {
		return inputs, out, err
	}
	if out.TotalBloodVolume, err = BloodVolume(in.Weight, in.Volume, in.CustomVolumePerKg); err != nil {
		return inputs, out, err
	}
	if out.PumpFlowRate, err = PumpFlow(in.Weight, ci); err != nil {
		return inputs, out, err
	}
	if out.DilutionalHematocrit, err = PostPrimingHematocrit(in.CurrentHematocrit, in.PrimingVolume, out.TotalBloodVolume); err != nil {
		return inputs, out, err
	}
	if out.CerebralFlow, err = CerebralFlow(in.Weight); err != nil {
		return inputs, out, err
	}
	if out.CardiacFlow, err = CoronaryFlow(in.Weight); err != nil {
		return inputs, out, err
	}
	return inputs, out, nil
}

// PediatricBypassInput is the operator input for a pediatric bypass
// calculation. A zero CardiacIndex selects the age-group default.
type PediatricBypassInput struct {
	AgeYears          float64
	Weight            float64
	Height            float64
	CurrentHematocrit float64
	DesiredHematocrit float64
	PrimingVolume     float64
	CardiacIndex      float64
	AnnulusDiameterMm *float64
}

// PediatricBypass computes the pediatric snapshot: Mosteller BSA, age-based
// blood volume, pump flow from the age-group cardiac index, dilution of the
// patient's blood by the prime, and cerebral (15%) and cardiac (5%) shares of
// the pump flow in mL/min. RecommendedVolume carries the mL/kg used and
// ZScore is set when an annulus diameter is given.
func PediatricBypass(in PediatricBypassInput) (domain.CalculationInputs, domain.CalculationOutputs, error) {
	inputs := domain.CalculationInputs{
		Weight:            in.Weight,
		Height:            in.Height,
		CurrentHematocrit: in.CurrentHematocrit,
		DesiredHematocrit: in.DesiredHematocrit,
		PrimingVolume:     in.PrimingVolume,
		BloodVolumeMethod: "pediatric-age-based",
		AgeYears:          floatPtr(in.AgeYears),
		AnnulusDiameter:   cloneFloat(in.AnnulusDiameterMm),
	}
	var out domain.CalculationOutputs
	if err := percentage("desired hematocrit", in.DesiredHematocrit); err != nil {
		return inputs, out, err
	}

	indexRange, err := PediatricCardiacIndexRange(in.AgeYears)
	if err != nil {
		return inputs, out, err
	}
	ci := indexRange.Default
	if in.CardiacIndex != 0 {
		if err := positive("cardiac index", in.CardiacIndex); err != nil {
			return inputs, out, err
		}
		ci = in.CardiacIndex
	}
	inputs.CardiacIndex = ci

	perKg, err := PediatricVolumePerKg(in.AgeYears)
	if err != nil {
		return inputs, out, err
	}
	out.RecommendedVolume = floatPtr(perKg)
	if out.BSA, err = MostellerBSA(in.Height, in.Weight); err != nil {
		return inputs, out, err
	}
	out.TotalBloodVolume = in.Weight * perKg
	out.PumpFlowRate = out.BSA * ci
	if out.DilutionalHematocrit, err = MixedHematocrit(in.CurrentHematocrit, in.PrimingVolume, out.TotalBloodVolume); err != nil {
		return inputs, out, err
	}
	out.CerebralFlow = out.PumpFlowRate * 1000 * pediatricCerebralFraction
	out.CardiacFlow = out.PumpFlowRate * 1000 * pediatricCardiacFraction
	if in.AnnulusDiameterMm != nil {
		z, err := ValveZScore(*in.AnnulusDiameterMm, out.BSA)
		if err != nil {
			return inputs, out, err
		}
		out.ZScore = &z
	}
	return inputs, out, nil
}

func floatPtr(v float64) *float64 { return &v }

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v)
}
