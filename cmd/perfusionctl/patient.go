package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"perfusioncore/internal/core"
	"perfusioncore/pkg/domain"
)

func (a *app) patientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patient", Short: "Manage patient records"}
	cmd.AddCommand(a.patientCreateCmd(), a.patientUpdateCmd(), a.patientDeleteCmd(), a.patientShowCmd(), a.patientListCmd())
	return cmd
}

type patientFlags struct {
	name, surname, sex, diagnosis, history, allergies, surgery, surgeon, notes string
	age                                                                        int
}

func (f *patientFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "given name")
	fs.StringVar(&f.surname, "surname", "", "surname")
	fs.StringVar(&f.sex, "sex", "", "male, female or other")
	fs.IntVar(&f.age, "age", 0, "age in years")
	fs.StringVar(&f.diagnosis, "diagnosis", "", "diagnosis")
	fs.StringVar(&f.history, "history", "", "medical history")
	fs.StringVar(&f.allergies, "allergies", "", "allergies")
	fs.StringVar(&f.surgery, "surgery", "", "planned surgery")
	fs.StringVar(&f.surgeon, "surgeon", "", "surgeon name")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
}

func (f *patientFlags) fields() (domain.PatientFields, error) {
	sex, err := domain.ParseSex(f.sex)
	if err != nil {
		return domain.PatientFields{}, err
	}
	return domain.PatientFields{
		Name: f.name, Surname: f.surname, Sex: sex, Age: f.age,
		Diagnosis: f.diagnosis, MedicalHistory: f.history, Allergies: f.allergies,
		PlannedSurgery: f.surgery, SurgeonName: f.surgeon, Notes: f.notes,
	}, nil
}

// update builds a PatientUpdate from the flags the operator actually set.
func (f *patientFlags) update(fs *pflag.FlagSet) (domain.PatientUpdate, error) {
	var u domain.PatientUpdate
	str := map[string]**string{
		"name": &u.Name, "surname": &u.Surname, "diagnosis": &u.Diagnosis, "history": &u.MedicalHistory,
		"allergies": &u.Allergies, "surgery": &u.PlannedSurgery, "surgeon": &u.SurgeonName, "notes": &u.Notes,
	}
	values := map[string]string{
		"name": f.name, "surname": f.surname, "diagnosis": f.diagnosis, "history": f.history,
		"allergies": f.allergies, "surgery": f.surgery, "surgeon": f.surgeon, "notes": f.notes,
	}
	for flag, dst := range str {
		if fs.Changed(flag) {
			v := values[flag]
			*dst = &v
		}
	}
	if fs.Changed("age") {
		age := f.age
		u.Age = &age
	}
	if fs.Changed("sex") {
		sex, err := domain.ParseSex(f.sex)
		if err != nil {
			return u, err
		}
		u.Sex = &sex
	}
	return u, nil
}

func (a *app) patientCreateCmd() *cobra.Command {
	var flags patientFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := flags.fields()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			p, _, err := svc.CreatePatient(cmd.Context(), fields)
			if err != nil {
				return err
			}
			return a.writeJSON(p)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) patientUpdateCmd() *cobra.Command {
	var flags patientFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd, err := flags.update(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			p, found, err := svc.UpdatePatient(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("patient %s not found", args[0])
			}
			return a.writeJSON(p)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) patientDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and its calculations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := svc.DeletePatient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeJSON(map[string]any{"id": args[0], "deleted": ok})
		},
	}
}

func (a *app) patientShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a patient with its calculations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := svc.GetPatientWithCalculations(args[0])
			if !ok {
				return fmt.Errorf("patient %s not found", args[0])
			}
			return a.writeJSON(p)
		},
	}
}

func (a *app) patientListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patients with their calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			list := svc.ListPatientsWithCalculations()
			if list == nil {
				list = []core.PatientWithCalculations{}
			}
			return a.writeJSON(list)
		},
	}
}
