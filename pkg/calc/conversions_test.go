package calc

import "testing"

func TestFrenchToInchScenario(t *testing.T) {
	c, err := Convert(ConvertFrToInch, 10)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if c.Converted != 3.3333 || c.FromUnit != "Fr" || c.ToUnit != "in" || c.Original != 10 {
		t.Fatalf("unexpected conversion %+v", c)
	}
}

func TestRoundTrips(t *testing.T) {
	for _, x := range []float64{0, 0.001, 1, 2.54, 12.5, 170, 1e6} {
		mg := mustValue(t)(UgToMg(x))
		approx(t, "mg/ug", mustValue(t)(MgToUg(mg)), x, 1e-9*(1+x))
		in := mustValue(t)(InchToCm(x))
		approx(t, "cm/in", mustValue(t)(CmToInch(in)), x, 1e-9*(1+x))
		fr := mustValue(t)(InchToFrench(x))
		approx(t, "in/fr", mustValue(t)(FrenchToInch(fr)), x, 1e-9*(1+x))
		lb := mustValue(t)(KgToLb(x))
		approx(t, "kg/lb", mustValue(t)(LbToKg(lb)), x, 1e-9*(1+x))
	}
}

func TestMEqConversions(t *testing.T) {
	approx(t, "kcl", mustValue(t)(MEqToMg(10, PotassiumChloride.MolecularWeight, 1)), 745.5, 1e-9)
	approx(t, "back", mustValue(t)(MgToMEq(745.5, PotassiumChloride.MolecularWeight, 1)), 10, 1e-9)
	approx(t, "divalent", mustValue(t)(MEqToMg(10, 100, 2)), 500, 1e-9)
	_, err := MEqToMg(10, 0, 1)
	expectInvalid(t, err)
}

func TestConvertDisplayPrecision(t *testing.T) {
	cases := []struct {
		kind ConversionKind
		in   float64
		want float64
	}{
		{ConvertCmToInch, 170, 66.9291},
		{ConvertInchToCm, 1, 2.54},
		{ConvertInchToFr, 1.111, 3.33},
		{ConvertKgToLb, 70, 154.32},
		{ConvertLbToKg, 154.32, 70},
		{ConvertMgToUg, 0.25, 250},
		{ConvertUgToMg, 1, 0.001},
	}
	for _, tc := range cases {
		c, err := Convert(tc.kind, tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		approx(t, string(tc.kind), c.Converted, tc.want, 1e-9)
	}
}

func TestConvertSubstance(t *testing.T) {
	c, err := ConvertSubstance(ConvertMEqToMg, 10, SodiumBicarbonate)
	if err != nil || c.Converted != 840.1 || c.Substance != "NaHCO3" {
		t.Fatalf("unexpected %+v err %v", c, err)
	}
	c, err = ConvertSubstance(ConvertMgToMEq, 100, PotassiumChloride)
	if err != nil || c.Converted != 1.341 {
		t.Fatalf("unexpected %+v err %v", c, err)
	}
	_, err = ConvertSubstance(ConvertKgToLb, 1, PotassiumChloride)
	expectInvalid(t, err)
	_, err = Convert(ConvertMEqToMg, 1)
	expectInvalid(t, err)
	_, err = Convert(ConversionKind("stone-kg"), 1)
	expectInvalid(t, err)
}

func TestLookupSubstance(t *testing.T) {
	if s, ok := LookupSubstance(" KCl "); !ok || s != PotassiumChloride {
		t.Fatalf("lookup kcl: %+v %v", s, ok)
	}
	if _, ok := LookupSubstance("CaCl2"); ok {
		t.Fatalf("unexpected substance")
	}
	if len(ConversionKinds()) != 10 {
		t.Fatalf("expected 10 conversion kinds")
	}
}
