package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"perfusioncore/internal/core"
)

// exportFile is the browser export layout: both collections in one object.
type exportFile struct {
	Patients     []core.Patient           `json:"patients"`
	Calculations []core.CalculationResult `json:"calculations"`
}

func (a *app) importCmd() *cobra.Command {
	var patientsPath, calcsPath string
	cmd := &cobra.Command{
		Use:   "import [export.json]",
		Short: "Import patients and calculations from a JSON export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data exportFile
			if len(args) == 1 {
				if err := readJSONFile(args[0], &data); err != nil {
					return err
				}
			}
			if patientsPath != "" {
				var ps []core.Patient
				if err := readJSONFile(patientsPath, &ps); err != nil {
					return err
				}
				data.Patients = append(data.Patients, ps...)
			}
			if calcsPath != "" {
				var cs []core.CalculationResult
				if err := readJSONFile(calcsPath, &cs); err != nil {
					return err
				}
				data.Calculations = append(data.Calculations, cs...)
			}
			if len(args) == 0 && patientsPath == "" && calcsPath == "" {
				return fmt.Errorf("nothing to import: pass an export file or --patients/--calculations")
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := svc.Import(cmd.Context(), data.Patients, data.Calculations)
			if err != nil {
				return err
			}
			return a.writeJSON(summary)
		},
	}
	cmd.Flags().StringVar(&patientsPath, "patients", "", "file holding a JSON array of patients")
	cmd.Flags().StringVar(&calcsPath, "calculations", "", "file holding a JSON array of calculation results")
	return cmd
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
