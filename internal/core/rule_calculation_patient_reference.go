package core

import (
	"context"
	"fmt"

	"perfusioncore/pkg/domain"
)

// NewCalculationPatientReferenceRule returns the rule that blocks calculation
// results pointing at a patient that does not exist in the post-transaction state.
func NewCalculationPatientReferenceRule() domain.Rule {
	return calculationPatientReferenceRule{}
}

type calculationPatientReferenceRule struct{}

func (calculationPatientReferenceRule) Name() string { return "calculation_patient_reference" }

func (r calculationPatientReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityCalculation || change.Action != domain.ActionCreate {
			continue
		}
		calc, ok := change.After.(domain.CalculationResult)
		if !ok {
			continue
		}
		if _, exists := view.FindPatient(calc.PatientID); exists {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("calculation %s references missing patient %q", calc.ID, calc.PatientID),
			Entity:   domain.EntityCalculation,
			EntityID: calc.ID,
		})
	}
	return res, nil
}
