package core

import (
	"context"
	"fmt"

	"perfusioncore/pkg/calc"
	"perfusioncore/pkg/domain"
)

// RecordAdultBypass runs the adult bypass recipe and attaches the result to
// the patient.
func (s *Service) RecordAdultBypass(ctx context.Context, patientID string, in calc.AdultBypassInput) (CalculationResult, Result, error) {
	inputs, outputs, err := calc.AdultBypass(in)
	if err != nil {
		return CalculationResult{}, Result{}, fmt.Errorf("adult bypass: %w", err)
	}
	return s.AddCalculation(ctx, CalculationFields{
		PatientID: patientID,
		Type:      domain.CalculationAdultBypass,
		Inputs:    inputs,
		Outputs:   outputs,
	})
}

// RecordPediatricBypass runs the pediatric bypass recipe and attaches the
// result to the patient.
func (s *Service) RecordPediatricBypass(ctx context.Context, patientID string, in calc.PediatricBypassInput) (CalculationResult, Result, error) {
	inputs, outputs, err := calc.PediatricBypass(in)
	if err != nil {
		return CalculationResult{}, Result{}, fmt.Errorf("pediatric bypass: %w", err)
	}
	return s.AddCalculation(ctx, CalculationFields{
		PatientID: patientID,
		Type:      domain.CalculationPediatricBypass,
		Inputs:    inputs,
		Outputs:   outputs,
	})
}
