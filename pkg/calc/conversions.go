package calc

import (
	"fmt"
	"strings"
)

// Conversion factors.
const (
	CmPerInch     = 2.54
	FrenchPerInch = 3.0
	LbPerKg       = 2.20462
	UgPerMg       = 1000.0
)

// MgToUg converts milligrams to micrograms.
func MgToUg(mg float64) (float64, error) {
	if err := nonNegative("mg", mg); err != nil {
		return 0, err
	}
	return mg * UgPerMg, nil
}

// UgToMg converts micrograms to milligrams.
func UgToMg(ug float64) (float64, error) {
	if err := nonNegative("µg", ug); err != nil {
		return 0, err
	}
	return ug / UgPerMg, nil
}

// CmToInch converts centimetres to inches.
func CmToInch(cm float64) (float64, error) {
	if err := nonNegative("cm", cm); err != nil {
		return 0, err
	}
	return cm / CmPerInch, nil
}

// InchToCm converts inches to centimetres.
func InchToCm(in float64) (float64, error) {
	if err := nonNegative("inch", in); err != nil {
		return 0, err
	}
	return in * CmPerInch, nil
}

// InchToFrench converts a diameter in inches to the French catheter scale.
func InchToFrench(in float64) (float64, error) {
	if err := nonNegative("inch", in); err != nil {
		return 0, err
	}
	return in * FrenchPerInch, nil
}

// FrenchToInch converts a French catheter size to inches.
func FrenchToInch(fr float64) (float64, error) {
	if err := nonNegative("french", fr); err != nil {
		return 0, err
	}
	return fr / FrenchPerInch, nil
}

// MEqToMg converts milliequivalents to milligrams: mEq × mw / valence.
func MEqToMg(meq, molecularWeight, valence float64) (float64, error) {
	if err := firstErr(nonNegative("mEq", meq), positive("molecular weight", molecularWeight), positive("valence", valence)); err != nil {
		return 0, err
	}
	return meq * molecularWeight / valence, nil
}

// MgToMEq converts milligrams to milliequivalents: mg × valence / mw.
func MgToMEq(mg, molecularWeight, valence float64) (float64, error) {
	if err := firstErr(nonNegative("mg", mg), positive("molecular weight", molecularWeight), positive("valence", valence)); err != nil {
		return 0, err
	}
	return mg * valence / molecularWeight, nil
}

// KgToLb converts kilograms to pounds.
func KgToLb(kg float64) (float64, error) {
	if err := nonNegative("kg", kg); err != nil {
		return 0, err
	}
	return kg * LbPerKg, nil
}

// LbToKg converts pounds to kilograms.
func LbToKg(lb float64) (float64, error) {
	if err := nonNegative("lb", lb); err != nil {
		return 0, err
	}
	return lb / LbPerKg, nil
}

// Substance is an electrolyte salt used for mEq↔mg conversion.
type Substance struct {
	Name            string
	MolecularWeight float64
	Valence         float64
}

// Common electrolyte salts.
var (
	PotassiumChloride = Substance{Name: "KCl", MolecularWeight: 74.55, Valence: 1}
	SodiumBicarbonate = Substance{Name: "NaHCO3", MolecularWeight: 84.01, Valence: 1}
	substancesByName  = map[string]Substance{"kcl": PotassiumChloride, "nahco3": SodiumBicarbonate}
)

// LookupSubstance finds a known substance by case-insensitive name.
func LookupSubstance(name string) (Substance, bool) {
	s, ok := substancesByName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// ConversionKind names a supported unit conversion.
type ConversionKind string

// Supported conversions.
const (
	ConvertMgToUg   ConversionKind = "mg-ug"
	ConvertUgToMg   ConversionKind = "ug-mg"
	ConvertCmToInch ConversionKind = "cm-in"
	ConvertInchToCm ConversionKind = "in-cm"
	ConvertInchToFr ConversionKind = "in-fr"
	ConvertFrToInch ConversionKind = "fr-in"
	ConvertMEqToMg  ConversionKind = "meq-mg"
	ConvertMgToMEq  ConversionKind = "mg-meq"
	ConvertKgToLb   ConversionKind = "kg-lb"
	ConvertLbToKg   ConversionKind = "lb-kg"
)

type unitPair struct {
	from, to string
	places   int
	fn       func(float64) (float64, error)
}

var conversions = map[ConversionKind]unitPair{
	ConvertMgToUg:   {"mg", "µg", 4, MgToUg},
	ConvertUgToMg:   {"µg", "mg", 4, UgToMg},
	ConvertCmToInch: {"cm", "in", 4, CmToInch},
	ConvertInchToCm: {"in", "cm", 2, InchToCm},
	ConvertInchToFr: {"in", "Fr", 2, InchToFrench},
	ConvertFrToInch: {"Fr", "in", 4, FrenchToInch},
	ConvertKgToLb:   {"kg", "lb", 2, KgToLb},
	ConvertLbToKg:   {"lb", "kg", 2, LbToKg},
}

// ConversionKinds lists every kind accepted by Convert or ConvertSubstance.
func ConversionKinds() []ConversionKind {
	return []ConversionKind{
		ConvertMgToUg, ConvertUgToMg, ConvertCmToInch, ConvertInchToCm,
		ConvertInchToFr, ConvertFrToInch, ConvertMEqToMg, ConvertMgToMEq,
		ConvertKgToLb, ConvertLbToKg,
	}
}

// Conversion is a display-ready conversion result. Converted is rounded to
// the precision conventional for the unit pair.
type Conversion struct {
	Kind      ConversionKind `json:"kind"`
	Original  float64        `json:"original"`
	Converted float64        `json:"converted"`
	FromUnit  string         `json:"fromUnit"`
	ToUnit    string         `json:"toUnit"`
	Substance string         `json:"substance,omitempty"`
}

// Convert runs a unit-only conversion. mEq conversions need a substance and
// must go through ConvertSubstance.
func Convert(kind ConversionKind, value float64) (Conversion, error) {
	pair, ok := conversions[kind]
	if !ok {
		if kind == ConvertMEqToMg || kind == ConvertMgToMEq {
			return Conversion{}, fmt.Errorf("%w: conversion %q requires a substance", ErrInvalidInput, kind)
		}
		return Conversion{}, fmt.Errorf("%w: unknown conversion %q", ErrInvalidInput, kind)
	}
	out, err := pair.fn(value)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Kind: kind, Original: value, Converted: Round(out, pair.places), FromUnit: pair.from, ToUnit: pair.to}, nil
}

// ConvertSubstance runs an mEq↔mg conversion for the given salt.
func ConvertSubstance(kind ConversionKind, value float64, s Substance) (Conversion, error) {
	var (
		out      float64
		err      error
		from, to string
		places   int
	)
	switch kind {
	case ConvertMEqToMg:
		out, err = MEqToMg(value, s.MolecularWeight, s.Valence)
		from, to, places = "mEq", "mg", 2
	case ConvertMgToMEq:
		out, err = MgToMEq(value, s.MolecularWeight, s.Valence)
		from, to, places = "mg", "mEq", 3
	default:
		return Conversion{}, fmt.Errorf("%w: conversion %q does not take a substance", ErrInvalidInput, kind)
	}
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Kind: kind, Original: value, Converted: Round(out, places), FromUnit: from, ToUnit: to, Substance: s.Name}, nil
}
