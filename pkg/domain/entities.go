// Package domain defines the persistent records, value types, and rule
// evaluation primitives shared by the perfusioncore repository and stores.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence slots.
const (
	// EntityPatient identifies a patient record.
	EntityPatient EntityType = "patient"
	// EntityCalculation identifies a calculation result record.
	EntityCalculation EntityType = "calculation"
)

// Sex is the patient's sex/gender category.
type Sex string

// Recognised sex categories.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// legacySex maps values written by the browser store to canonical categories.
var legacySex = map[string]Sex{
	"masculino": SexMale,
	"femenino":  SexFemale,
	"otro":      SexOther,
	"m":         SexMale,
	"f":         SexFemale,
}

// ParseSex normalises a sex category, accepting legacy payload values.
func ParseSex(raw string) (Sex, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch Sex(v) {
	case SexMale, SexFemale, SexOther:
		return Sex(v), nil
	case "":
		return "", nil
	}
	if s, ok := legacySex[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown sex %q", raw)
}

// UnmarshalText implements encoding.TextUnmarshaler. Known and legacy values
// are normalised; anything else is kept verbatim so stored records never
// fail to load.
func (s *Sex) UnmarshalText(text []byte) error {
	parsed, err := ParseSex(string(text))
	if err != nil {
		*s = Sex(strings.TrimSpace(string(text)))
		return nil
	}
	*s = parsed
	return nil
}

// CalculationType categorises a calculation result.
type CalculationType string

// Known calculation categories. The set is open; unknown values round-trip.
const (
	CalculationAdultBypass     CalculationType = "adult-bypass"
	CalculationPediatricBypass CalculationType = "pediatric-bypass"
)

var legacyCalculationTypes = map[string]CalculationType{
	"cec-adulto":     CalculationAdultBypass,
	"cec-pediatrico": CalculationPediatricBypass,
}

// UnmarshalText implements encoding.TextUnmarshaler, mapping legacy categories.
func (c *CalculationType) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	if mapped, ok := legacyCalculationTypes[v]; ok {
		*c = mapped
		return nil
	}
	*c = CalculationType(v)
	return nil
}

// PatientFields holds every mutable patient attribute. It is the input to
// patient creation.
type PatientFields struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Sex            Sex    `json:"gender"`
	Age            int    `json:"age"`
	Diagnosis      string `json:"diagnosis"`
	MedicalHistory string `json:"medicalHistory"`
	Allergies      string `json:"allergies"`
	PlannedSurgery string `json:"plannedSurgery"`
	SurgeonName    string `json:"surgeonName"`
	Notes          string `json:"notes"`
}

// Patient is a demographic and clinical-context record.
type Patient struct {
	ID string `json:"id"`
	PatientFields
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins given name and surname.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}

// PatientUpdate is a partial patient mutation; nil fields are left untouched.
type PatientUpdate struct {
	Name           *string `json:"name,omitempty"`
	Surname        *string `json:"surname,omitempty"`
	Sex            *Sex    `json:"gender,omitempty"`
	Age            *int    `json:"age,omitempty"`
	Diagnosis      *string `json:"diagnosis,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
	Allergies      *string `json:"allergies,omitempty"`
	PlannedSurgery *string `json:"plannedSurgery,omitempty"`
	SurgeonName    *string `json:"surgeonName,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Apply merges the non-nil fields of u into f.
func (u PatientUpdate) Apply(f *PatientFields) {
	if u.Name != nil {
		f.Name = *u.Name
	}
	if u.Surname != nil {
		f.Surname = *u.Surname
	}
	if u.Sex != nil {
		f.Sex = *u.Sex
	}
	if u.Age != nil {
		f.Age = *u.Age
	}
	if u.Diagnosis != nil {
		f.Diagnosis = *u.Diagnosis
	}
	if u.MedicalHistory != nil {
		f.MedicalHistory = *u.MedicalHistory
	}
	if u.Allergies != nil {
		f.Allergies = *u.Allergies
	}
	if u.PlannedSurgery != nil {
		f.PlannedSurgery = *u.PlannedSurgery
	}
	if u.SurgeonName != nil {
		f.SurgeonName = *u.SurgeonName
	}
	if u.Notes != nil {
		f.Notes = *u.Notes
	}
}

// CalculationInputs is the operator-supplied snapshot of a calculation.
type CalculationInputs struct {
	Weight            float64  `json:"weight"`
	Height            float64  `json:"height"`
	CurrentHematocrit float64  `json:"currentHematocrit"`
	DesiredHematocrit float64  `json:"desiredHematocrit"`
	PrimingVolume     float64  `json:"primingVolume"`
	BloodVolumeMethod string   `json:"bloodVolumeMethod"`
	CardiacIndex      float64  `json:"cardiacIndex"`
	AgeYears          *float64 `json:"ageYears,omitempty"`
	AnnulusDiameter   *float64 `json:"annulusDiameter,omitempty"`
}

// CalculationOutputs is the derived snapshot of a calculation.
type CalculationOutputs struct {
	BSA                  float64  `json:"bsa"`
	TotalBloodVolume     float64  `json:"totalBloodVolume"`
	PumpFlowRate         float64  `json:"pumpFlowRate"`
	DilutionalHematocrit float64  `json:"dilutionalHematocrit"`
	CerebralFlow         float64  `json:"cerebralFlow"`
	CardiacFlow          float64  `json:"cardiacFlow"`
	RecommendedVolume    *float64 `json:"recommendedVolume,omitempty"`
	ZScore               *float64 `json:"zScore,omitempty"`
}

// CalculationFields is the input to AddCalculation.
type CalculationFields struct {
	PatientID string             `json:"patientId"`
	Type      CalculationType    `json:"type"`
	Inputs    CalculationInputs  `json:"inputs"`
	Outputs   CalculationOutputs `json:"outputs"`
}

// CalculationResult is an immutable record of one derived-parameter computation.
type CalculationResult struct {
	ID string `json:"id"`
	CalculationFields
	Timestamp time.Time `json:"timestamp"`
}

// PatientWithCalculations merges a patient with its calculation results.
type PatientWithCalculations struct {
	Patient
	Calculations []CalculationResult `json:"calculations"`
}

type patientWithCalculationsJSON struct {
	Patient
	Calculations []CalculationResult `json:"calculations"`
}

// MarshalJSON flattens the patient fields next to the calculations list.
func (p PatientWithCalculations) MarshalJSON() ([]byte, error) {
	calcs := p.Calculations
	if calcs == nil {
		calcs = []CalculationResult{}
	}
	return json.Marshal(patientWithCalculationsJSON{Patient: p.Patient, Calculations: calcs})
}

// ClonePatient returns a copy of p.
func ClonePatient(p Patient) Patient { return p }

// CloneCalculation returns a deep copy of c so that optional snapshot fields
// cannot be mutated through a shared pointer.
func CloneCalculation(c CalculationResult) CalculationResult {
	cp := c
	cp.Inputs.AgeYears = cloneFloat(c.Inputs.AgeYears)
	cp.Inputs.AnnulusDiameter = cloneFloat(c.Inputs.AnnulusDiameter)
	cp.Outputs.RecommendedVolume = cloneFloat(c.Outputs.RecommendedVolume)
	cp.Outputs.ZScore = cloneFloat(c.Outputs.ZScore)
	return cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behaviour and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	var msgs []string
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Rule+": "+v.Message)
		}
	}
	if len(msgs) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}
