package calc

// PostPrimingHematocrit returns the dilutional hematocrit (%) after the
// circuit prime mixes with the patient's blood:
// hct × (total − priming) / total. The total volume must exceed the prime.
func PostPrimingHematocrit(hct, primingMl, totalVolumeMl float64) (float64, error) {
	if err := firstErr(
		percentage("hematocrit", hct),
		nonNegative("priming volume", primingMl),
		finite("total blood volume", totalVolumeMl),
	); err != nil {
		return 0, err
	}
	if totalVolumeMl <= primingMl {
		return 0, &InputError{Field: "total blood volume", Value: totalVolumeMl, Reason: "must exceed the priming volume"}
	}
	ratio, err := divide("total blood volume", totalVolumeMl-primingMl, totalVolumeMl)
	if err != nil {
		return 0, err
	}
	return hct * ratio, nil
}

// MixedHematocrit returns the hematocrit (%) when a blood volume mixes with a
// crystalloid prime: hct × bloodVolume / (priming + bloodVolume).
func MixedHematocrit(hct, primingMl, bloodVolumeMl float64) (float64, error) {
	if err := firstErr(
		percentage("hematocrit", hct),
		nonNegative("priming volume", primingMl),
		positive("patient blood volume", bloodVolumeMl),
	); err != nil {
		return 0, err
	}
	ratio, err := divide("priming plus blood volume", bloodVolumeMl, primingMl+bloodVolumeMl)
	if err != nil {
		return 0, err
	}
	return hct * ratio, nil
}
