package calc

// Oxygen transport constants.
const (
	// HemoglobinO2Capacity is the mL of O2 bound per gram of saturated hemoglobin.
	HemoglobinO2Capacity = 1.34
	// DissolvedO2Coefficient is the mL O2/dL/mmHg dissolved in plasma.
	DissolvedO2Coefficient = 0.003
	DefaultPaO2            = 100.0
	DefaultPvO2            = 40.0
)

func o2Content(hb, saturationPct, pO2 float64) (float64, error) {
	if err := firstErr(
		nonNegative("hemoglobin", hb),
		percentage("saturation", saturationPct),
		nonNegative("partial pressure", pO2),
	); err != nil {
		return 0, err
	}
	return hb*(saturationPct/100)*HemoglobinO2Capacity + pO2*DissolvedO2Coefficient, nil
}

// ArterialO2Content returns CaO2 in mL/dL from hemoglobin (g/dL), arterial
// saturation (%) and PaO2 (mmHg).
func ArterialO2Content(hb, saO2Pct, paO2 float64) (float64, error) {
	return o2Content(hb, saO2Pct, paO2)
}

// VenousO2Content returns CvO2 in mL/dL from hemoglobin (g/dL), mixed venous
// saturation (%) and PvO2 (mmHg).
func VenousO2Content(hb, svO2Pct, pvO2 float64) (float64, error) {
	return o2Content(hb, svO2Pct, pvO2)
}

// O2Delivery returns DO2 in mL/min: content × cardiac output × 10.
func O2Delivery(content, cardiacOutput float64) (float64, error) {
	if err := firstErr(nonNegative("O2 content", content), nonNegative("cardiac output", cardiacOutput)); err != nil {
		return 0, err
	}
	return content * cardiacOutput * 10, nil
}

// O2Consumption returns VO2 in mL/min: (CaO2 − CvO2) × cardiac output × 10.
func O2Consumption(caO2, cvO2, cardiacOutput float64) (float64, error) {
	if err := firstErr(
		nonNegative("arterial O2 content", caO2),
		nonNegative("venous O2 content", cvO2),
		nonNegative("cardiac output", cardiacOutput),
	); err != nil {
		return 0, err
	}
	return (caO2 - cvO2) * cardiacOutput * 10, nil
}

// ExtractionRatio returns O2ER in percent: VO2 / DO2 × 100.
func ExtractionRatio(vo2, do2 float64) (float64, error) {
	if err := firstErr(finite("VO2", vo2), nonNegative("DO2", do2)); err != nil {
		return 0, err
	}
	ratio, err := divide("DO2", vo2, do2)
	if err != nil {
		return 0, err
	}
	return ratio * 100, nil
}

// CardiacIndex returns cardiac output normalised by body surface area.
func CardiacIndex(cardiacOutput, bsa float64) (float64, error) {
	if err := firstErr(nonNegative("cardiac output", cardiacOutput), nonNegative("bsa", bsa)); err != nil {
		return 0, err
	}
	return divide("bsa", cardiacOutput, bsa)
}

// MeanArterialPressure returns diastolic + (systolic − diastolic) / 3.
func MeanArterialPressure(systolic, diastolic float64) (float64, error) {
	if err := firstErr(positive("systolic pressure", systolic), positive("diastolic pressure", diastolic)); err != nil {
		return 0, err
	}
	if diastolic > systolic {
		return 0, &InputError{Field: "diastolic pressure", Value: diastolic, Reason: "must not exceed systolic pressure"}
	}
	return diastolic + (systolic-diastolic)/3, nil
}

// HemodynamicInput gathers the measurements for a full oxygen transport
// profile. Zero partial pressures fall back to DefaultPaO2 and DefaultPvO2.
// Pressures and heart rate are optional; their derived values are omitted
// when zero.
type HemodynamicInput struct {
	Hemoglobin    float64 `json:"hemoglobin"`
	SaO2          float64 `json:"saO2"`
	SvO2          float64 `json:"svO2"`
	PaO2          float64 `json:"paO2,omitempty"`
	PvO2          float64 `json:"pvO2,omitempty"`
	CardiacOutput float64 `json:"cardiacOutput"`
	BSA           float64 `json:"bsa"`
	HeartRate     float64 `json:"heartRate,omitempty"`
	Systolic      float64 `json:"systolic,omitempty"`
	Diastolic     float64 `json:"diastolic,omitempty"`
	CVP           float64 `json:"cvp,omitempty"`
}

// HemodynamicProfile is the derived oxygen transport and pressure profile.
type HemodynamicProfile struct {
	CaO2              float64  `json:"caO2"`
	CvO2              float64  `json:"cvO2"`
	DO2               float64  `json:"do2"`
	VO2               float64  `json:"vo2"`
	ExtractionRatio   float64  `json:"extractionRatio"`
	CardiacIndex      float64  `json:"cardiacIndex"`
	MAP               *float64 `json:"map,omitempty"`
	StrokeVolume      *float64 `json:"strokeVolume,omitempty"`
	StrokeVolumeIndex *float64 `json:"strokeVolumeIndex,omitempty"`
	SVR               *float64 `json:"svr,omitempty"`
}

// Hemodynamics derives the oxygen transport indices, cardiac index and,
// when pressures and heart rate are supplied, MAP, stroke volume and
// systemic vascular resistance (dyn·s/cm⁵).
func Hemodynamics(in HemodynamicInput) (HemodynamicProfile, error) {
	paO2, pvO2 := in.PaO2, in.PvO2
	if paO2 == 0 {
		paO2 = DefaultPaO2
	}
	if pvO2 == 0 {
		pvO2 = DefaultPvO2
	}
	var (
		p   HemodynamicProfile
		err error
	)
	if p.CaO2, err = ArterialO2Content(in.Hemoglobin, in.SaO2, paO2); err != nil {
		return HemodynamicProfile{}, err
	}
	if p.CvO2, err = VenousO2Content(in.Hemoglobin, in.SvO2, pvO2); err != nil {
		return HemodynamicProfile{}, err
	}
	if p.DO2, err = O2Delivery(p.CaO2, in.CardiacOutput); err != nil {
		return HemodynamicProfile{}, err
	}
	if p.VO2, err = O2Consumption(p.CaO2, p.CvO2, in.CardiacOutput); err != nil {
		return HemodynamicProfile{}, err
	}
	if p.ExtractionRatio, err = ExtractionRatio(p.VO2, p.DO2); err != nil {
		return HemodynamicProfile{}, err
	}
	if p.CardiacIndex, err = CardiacIndex(in.CardiacOutput, in.BSA); err != nil {
		return HemodynamicProfile{}, err
	}
	if in.HeartRate > 0 {
		sv, err := divide("heart rate", in.CardiacOutput*1000, in.HeartRate)
		if err != nil {
			return HemodynamicProfile{}, err
		}
		svi := sv / in.BSA
		p.StrokeVolume, p.StrokeVolumeIndex = &sv, &svi
	}
	if in.Systolic > 0 || in.Diastolic > 0 {
		mean, err := MeanArterialPressure(in.Systolic, in.Diastolic)
		if err != nil {
			return HemodynamicProfile{}, err
		}
		p.MAP = &mean
		if err := nonNegative("central venous pressure", in.CVP); err != nil {
			return HemodynamicProfile{}, err
		}
		svr, err := divide("cardiac output", (mean-in.CVP)*80, in.CardiacOutput)
		if err != nil {
			return HemodynamicProfile{}, err
		}
		p.SVR = &svr
	}
	return p, nil
}
