package core

import (
	"context"
	"fmt"

	"perfusioncore/pkg/domain"
)

// NewPatientAgeRule blocks patients whose age is negative.
func NewPatientAgeRule() domain.Rule {
	return patientAgeRule{}
}

type patientAgeRule struct{}

func (patientAgeRule) Name() string { return "patient_age" }

func (r patientAgeRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityPatient || change.Action == domain.ActionDelete {
			continue
		}
		p, ok := change.After.(domain.Patient)
		if !ok || p.Age >= 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("patient %s age %d must not be negative", p.ID, p.Age),
			Entity:   domain.EntityPatient,
			EntityID: p.ID,
		})
	}
	return res, nil
}
