package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"perfusioncore/pkg/calc"
	"perfusioncore/pkg/domain"
)

func (a *app) calcCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "calc", Short: "Run perfusion calculators"}
	cmd.AddCommand(
		a.calcAdultCmd(), a.calcPediatricCmd(), a.calcBSACmd(), a.calcECMOCmd(),
		a.calcElectrolyteCmd(), a.calcOxygenCmd(), a.calcConvertCmd(),
	)
	return cmd
}

type snapshot struct {
	Inputs  domain.CalculationInputs  `json:"inputs"`
	Outputs domain.CalculationOutputs `json:"outputs"`
}

func (a *app) calcAdultCmd() *cobra.Command {
	var (
		in              calc.AdultBypassInput
		patient, volume string
		cardiacIndex    string
	)
	cmd := &cobra.Command{
		Use:   "adult",
		Short: "Adult cardiopulmonary bypass parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Volume = calc.ParseVolumeSelector(volume)
			in.CardiacIndex = calc.ParseCardiacIndexSelector(cardiacIndex)
			if patient == "" {
				inputs, outputs, err := calc.AdultBypass(in)
				if err != nil {
					return err
				}
				return a.writeJSON(snapshot{inputs, outputs})
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, _, err := svc.RecordAdultBypass(cmd.Context(), patient, in)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&patient, "patient", "", "record the result on this patient id")
	f.Float64Var(&in.Weight, "weight", 0, "weight (kg)")
	f.Float64Var(&in.Height, "height", 0, "height (cm)")
	f.Float64Var(&in.CurrentHematocrit, "hct", 0, "current hematocrit (%)")
	f.Float64Var(&in.DesiredHematocrit, "target-hct", 0, "desired hematocrit (%)")
	f.Float64Var(&in.PrimingVolume, "priming", 0, "priming volume (mL)")
	f.StringVar(&volume, "volume", "", "blood volume factor: 70, 75, 80 or custom")
	f.Float64Var(&in.CustomVolumePerKg, "volume-per-kg", 0, "custom blood volume (mL/kg)")
	f.StringVar(&cardiacIndex, "ci", "", "cardiac index: 2.4, 2.6, 2.8 or custom")
	f.Float64Var(&in.CustomCardiacIndex, "custom-ci", 0, "custom cardiac index (L/min/m²)")
	return cmd
}

func (a *app) calcPediatricCmd() *cobra.Command {
	var (
		in      calc.PediatricBypassInput
		patient string
		annulus float64
	)
	cmd := &cobra.Command{
		Use:   "pediatric",
		Short: "Pediatric cardiopulmonary bypass parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("annulus") {
				in.AnnulusDiameterMm = &annulus
			}
			if patient == "" {
				inputs, outputs, err := calc.PediatricBypass(in)
				if err != nil {
					return err
				}
				return a.writeJSON(snapshot{inputs, outputs})
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, _, err := svc.RecordPediatricBypass(cmd.Context(), patient, in)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&patient, "patient", "", "record the result on this patient id")
	f.Float64Var(&in.AgeYears, "age", 0, "age (years, fractional)")
	f.Float64Var(&in.Weight, "weight", 0, "weight (kg)")
	f.Float64Var(&in.Height, "height", 0, "height (cm)")
	f.Float64Var(&in.CurrentHematocrit, "hct", 0, "current hematocrit (%)")
	f.Float64Var(&in.DesiredHematocrit, "target-hct", 0, "desired hematocrit (%)")
	f.Float64Var(&in.PrimingVolume, "priming", 0, "priming volume (mL)")
	f.Float64Var(&in.CardiacIndex, "ci", 0, "cardiac index; 0 uses the age-group default")
	f.Float64Var(&annulus, "annulus", 0, "valve annulus diameter (mm)")
	return cmd
}

func (a *app) calcBSACmd() *cobra.Command {
	var height, weight float64
	var method string
	cmd := &cobra.Command{
		Use:   "bsa",
		Short: "Body surface area (m²)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				bsa float64
				err error
			)
			switch strings.ToLower(method) {
			case "dubois":
				bsa, err = calc.BodySurfaceArea(height, weight)
			case "mosteller":
				bsa, err = calc.MostellerBSA(height, weight)
			default:
				return fmt.Errorf("unknown bsa method %q", method)
			}
			if err != nil {
				return err
			}
			return a.writeJSON(map[string]any{"method": strings.ToLower(method), "bsa": calc.Round(bsa, 2)})
		},
	}
	cmd.Flags().Float64Var(&height, "height", 0, "height (cm)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "weight (kg)")
	cmd.Flags().StringVar(&method, "method", "dubois", "dubois or mosteller")
	return cmd
}

func (a *app) calcECMOCmd() *cobra.Command {
	var mode string
	var height, weight, hct, priming, bloodVolume float64
	cmd := &cobra.Command{
		Use:   "ecmo",
		Short: "ECMO flow targets and post-priming hematocrit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := calc.ParseECMOMode(mode)
			if err != nil {
				return err
			}
			flow, err := calc.ECMOFlow(height, weight, m)
			if err != nil {
				return err
			}
			rng, err := calc.ECMOFlowRange(weight, m)
			if err != nil {
				return err
			}
			out := map[string]any{"mode": m, "flow": calc.Round(flow, 2), "flowRange": rng}
			if cmd.Flags().Changed("hct") {
				if bloodVolume == 0 {
					if bloodVolume, err = calc.BloodVolume(weight, calc.VolumeUnset, 0); err != nil {
						return err
					}
				}
				h, err := calc.ECMOHematocrit(hct, priming, bloodVolume)
				if err != nil {
					return err
				}
				out["hematocrit"] = calc.Round(h, 1)
			}
			return a.writeJSON(out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", "VA", "VA or VV")
	f.Float64Var(&height, "height", 0, "height (cm)")
	f.Float64Var(&weight, "weight", 0, "weight (kg)")
	f.Float64Var(&hct, "hct", 0, "current hematocrit (%)")
	f.Float64Var(&priming, "priming", 0, "circuit priming volume (mL)")
	f.Float64Var(&bloodVolume, "blood-volume", 0, "patient blood volume (mL); default 75 mL/kg")
	return cmd
}

func (a *app) calcElectrolyteCmd() *cobra.Command {
	var kind string
	var actual, desired, weight, concentration float64
	cmd := &cobra.Command{
		Use:   "electrolyte",
		Short: "Potassium or bicarbonate deficit (mEq)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deficit, err := calc.Deficit(calc.Electrolyte(strings.ToLower(kind)), actual, desired, weight)
			if err != nil {
				return err
			}
			out := map[string]any{"electrolyte": strings.ToLower(kind), "deficit": calc.Round(deficit, 2)}
			if concentration > 0 {
				ml, err := calc.VolumeToAdminister(deficit, concentration)
				if err != nil {
					return err
				}
				out["volumeMl"] = calc.Round(ml, 1)
			}
			return a.writeJSON(out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", string(calc.Potassium), "potassium or bicarbonate")
	f.Float64Var(&actual, "actual", 0, "measured level (mEq/L)")
	f.Float64Var(&desired, "desired", 0, "target level (mEq/L)")
	f.Float64Var(&weight, "weight", 0, "weight (kg)")
	f.Float64Var(&concentration, "concentration", 0, "solution concentration (mEq/mL)")
	return cmd
}

func (a *app) calcOxygenCmd() *cobra.Command {
	var in calc.HemodynamicInput
	cmd := &cobra.Command{
		Use:   "oxygen",
		Short: "Oxygen transport and hemodynamic profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := calc.Hemodynamics(in)
			if err != nil {
				return err
			}
			return a.writeJSON(profile)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.Hemoglobin, "hb", 0, "hemoglobin (g/dL)")
	f.Float64Var(&in.SaO2, "sao2", 0, "arterial saturation (%)")
	f.Float64Var(&in.SvO2, "svo2", 0, "venous saturation (%)")
	f.Float64Var(&in.PaO2, "pao2", 0, "arterial pO2 (mmHg)")
	f.Float64Var(&in.PvO2, "pvo2", 0, "venous pO2 (mmHg)")
	f.Float64Var(&in.CardiacOutput, "co", 0, "cardiac output (L/min)")
	f.Float64Var(&in.BSA, "bsa", 0, "body surface area (m²)")
	f.Float64Var(&in.HeartRate, "hr", 0, "heart rate (bpm)")
	f.Float64Var(&in.Systolic, "sys", 0, "systolic pressure (mmHg)")
	f.Float64Var(&in.Diastolic, "dia", 0, "diastolic pressure (mmHg)")
	f.Float64Var(&in.CVP, "cvp", 0, "central venous pressure (mmHg)")
	return cmd
}

func (a *app) calcConvertCmd() *cobra.Command {
	var substance string
	kinds := make([]string, 0, len(calc.ConversionKinds()))
	for _, k := range calc.ConversionKinds() {
		kinds = append(kinds, string(k))
	}
	cmd := &cobra.Command{
		Use:   "convert <kind> <value>",
		Short: "Unit conversion; kinds: " + strings.Join(kinds, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("value %q: %w", args[1], err)
			}
			kind := calc.ConversionKind(strings.ToLower(args[0]))
			var conv calc.Conversion
			if substance != "" {
				s, ok := calc.LookupSubstance(substance)
				if !ok {
					return fmt.Errorf("unknown substance %q", substance)
				}
				conv, err = calc.ConvertSubstance(kind, value, s)
			} else {
				conv, err = calc.Convert(kind, value)
			}
			if err != nil {
				return err
			}
			return a.writeJSON(conv)
		},
	}
	cmd.Flags().StringVar(&substance, "substance", "", "KCl or NaHCO3 for mEq conversions")
	return cmd
}
