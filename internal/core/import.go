package core

import (
	"context"
	"errors"
	"fmt"

	"perfusioncore/pkg/domain"
)

// ImportSummary counts the outcome of Import.
type ImportSummary struct {
	PatientsImported     int `json:"patientsImported"`
	PatientsSkipped      int `json:"patientsSkipped"`
	CalculationsImported int `json:"calculationsImported"`
	CalculationsSkipped  int `json:"calculationsSkipped"`
	// CalculationsOrphaned counts results whose patient is neither stored nor imported.
	CalculationsOrphaned int `json:"calculationsOrphaned"`
}

// Import restores exported records with their ids and timestamps in one
// transaction. Records whose id already exists are skipped.
func (s *Service) Import(ctx context.Context, patients []Patient, calculations []CalculationResult) (ImportSummary, error) {
	var sum ImportSummary
	_, err := s.run(ctx, "import", func(tx Transaction) error {
		sum = ImportSummary{}
		for _, p := range patients {
			if p.ID == "" {
				return fmt.Errorf("import patient %q: empty id", p.FullName())
			}
			if err := tx.RestorePatient(p); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					sum.PatientsSkipped++
					continue
				}
				return err
			}
			sum.PatientsImported++
		}
		for _, c := range calculations {
			if c.ID == "" {
				return fmt.Errorf("import calculation for patient %q: empty id", c.PatientID)
			}
			if _, ok := tx.FindPatient(c.PatientID); !ok {
				sum.CalculationsOrphaned++
				continue
			}
			if err := tx.RestoreCalculation(c); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					sum.CalculationsSkipped++
					continue
				}
				return err
			}
			sum.CalculationsImported++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}
	return sum, nil
}
