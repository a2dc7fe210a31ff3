package calc

import (
	"fmt"
	"math"

	"perfusioncore/pkg/domain"
)

// VolumeSelector picks the circulating blood volume per kilogram.
type VolumeSelector int

// Volume selectors. VolumeUnset and unrecognised values fall back to the
// custom override when positive, then to 75 mL/kg.
const (
	VolumeUnset VolumeSelector = iota
	Volume70
	Volume75
	Volume80
	VolumeCustom
)

// DefaultVolumePerKg is used when no selector or override resolves.
const DefaultVolumePerKg = 75.0

// ParseVolumeSelector maps form values ("70", "75", "80", "custom").
// Unknown values yield VolumeUnset so that the documented fallback applies.
func ParseVolumeSelector(raw string) VolumeSelector {
	switch raw {
	case "70":
		return Volume70
	case "75":
		return Volume75
	case "80":
		return Volume80
	case "custom":
		return VolumeCustom
	}
	return VolumeUnset
}

// String returns the form value of the selector.
func (v VolumeSelector) String() string {
	switch v {
	case Volume70:
		return "70"
	case Volume75:
		return "75"
	case Volume80:
		return "80"
	case VolumeCustom:
		return "custom"
	}
	return "default"
}

// VolumePerKg resolves the selector to mL/kg.
func (v VolumeSelector) VolumePerKg(customPerKg float64) float64 {
	switch v {
	case Volume70:
		return 70
	case Volume75:
		return 75
	case Volume80:
		return 80
	}
	if customPerKg > 0 && !math.IsInf(customPerKg, 0) {
		return customPerKg
	}
	return DefaultVolumePerKg
}

// BloodVolume returns the circulating blood volume in mL.
func BloodVolume(weightKg float64, sel VolumeSelector, customPerKg float64) (float64, error) {
	if err := positive("weight", weightKg); err != nil {
		return 0, err
	}
	if sel == VolumeCustom {
		if err := positive("custom volume per kg", customPerKg); err != nil {
			return 0, err
		}
	}
	return weightKg * sel.VolumePerKg(customPerKg), nil
}

// PediatricVolumePerKg returns the recommended blood volume in mL/kg for a
// child of the given age in years.
func PediatricVolumePerKg(ageYears float64) (float64, error) {
	if err := nonNegative("age", ageYears); err != nil {
		return 0, err
	}
	switch {
	case ageYears < 0.1:
		return 85, nil
	case ageYears < 1:
		return 80, nil
	case ageYears < 3:
		return 75, nil
	case ageYears < 10:
		return 70, nil
	}
	return 65, nil
}

// NadlerBloodVolume estimates blood volume in litres with Nadler's
// sex-specific equation. Only male and female are defined.
func NadlerBloodVolume(heightCm, weightKg float64, sex domain.Sex) (float64, error) {
	if err := firstErr(positive("height", heightCm), positive("weight", weightKg)); err != nil {
		return 0, err
	}
	h := heightCm / 100
	switch sex {
	case domain.SexMale:
		return 0.3669*h*h*h + 0.03219*weightKg + 0.6041, nil
	case domain.SexFemale:
		return 0.3561*h*h*h + 0.03308*weightKg + 0.1833, nil
	}
	return 0, fmt.Errorf("%w: nadler equation undefined for sex %q", ErrInvalidInput, sex)
}

// AgeGroup classifies a child for cardiac index targets.
type AgeGroup string

// Pediatric age groups.
const (
	AgeNeonate AgeGroup = "neonate"
	AgeInfant  AgeGroup = "infant"
	AgeChild   AgeGroup = "child"
)

// PediatricAgeGroup buckets an age in years: under one month is a
// neonate, under twelve months an infant.
func PediatricAgeGroup(ageYears float64) (AgeGroup, error) {
	if err := nonNegative("age", ageYears); err != nil {
		return "", err
	}
	months := ageYears * 12
	switch {
	case months < 1:
		return AgeNeonate, nil
	case months < 12:
		return AgeInfant, nil
	}
	return AgeChild, nil
}

// IndexRange is a recommended cardiac index interval in L/min/m².
type IndexRange struct {
	Min, Max, Default float64
}

// PediatricCardiacIndexRange returns the target cardiac index for the age.
func PediatricCardiacIndexRange(ageYears float64) (IndexRange, error) {
	group, err := PediatricAgeGroup(ageYears)
	if err != nil {
		return IndexRange{}, err
	}
	switch group {
	case AgeNeonate:
		return IndexRange{Min: 3.0, Max: 3.5, Default: 3.2}, nil
	case AgeInfant:
		return IndexRange{Min: 2.5, Max: 3.0, Default: 2.8}, nil
	}
	return IndexRange{Min: 2.2, Max: 2.8, Default: 2.5}, nil
}
