package insights

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadSamplesNativeSchema(t *testing.T) {
	csv := strings.Join([]string{
		"temperature,vibration,failed",
		"300.5,1500,0",
		"331.2,2650,1",
		"302.0,1480,false",
	}, "\n")

	samples, err := LoadSamples(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].Failed || !samples[1].Failed || samples[2].Failed {
		t.Fatalf("labels = %v %v %v", samples[0].Failed, samples[1].Failed, samples[2].Failed)
	}
	if samples[1].Temperature != 331.2 || samples[1].Vibration != 2650 {
		t.Fatalf("sample = %+v", samples[1])
	}
}

func TestLoadSamplesAI4IHeaders(t *testing.T) {
	csv := strings.Join([]string{
		"UDI,Air temperature [K],Rotational speed [rpm],Machine failure",
		"1,298.1,1551,0",
		"2,330.4,2710,1",
	}, "\n")

	samples, err := LoadSamples(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Failed || !samples[1].Failed {
		t.Fatalf("labels = %v %v", samples[0].Failed, samples[1].Failed)
	}
	if samples[0].Temperature != 298.1 {
		t.Fatalf("temperature = %v", samples[0].Temperature)
	}
}

func TestLoadSamplesSkipsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"temperature,vibration,failed",
		"300.5,1500,0",
		"not-a-number,1500,0",
		"301.0,1510,maybe",
		"302.5",
		"303.0,1490,1",
	}, "\n")

	samples, err := LoadSamples(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Temperature != 300.5 || !samples[1].Failed {
		t.Fatalf("samples = %+v", samples)
	}
}

func TestLoadSamplesMissingLabelColumn(t *testing.T) {
	csv := "temperature,vibration\n300,1500\n"
	if _, err := LoadSamples(strings.NewReader(csv)); !errors.Is(err, ErrMissingSampleColumn) {
		t.Fatalf("err = %v, want ErrMissingSampleColumn", err)
	}
}

func TestLoadSamplesFeedsModelTraining(t *testing.T) {
	rows := []string{"temperature,vibration,failed"}
	for i := 0; i < 6; i++ {
		rows = append(rows, "300.0,1500,0", "331.0,2650,1")
	}
	samples, err := LoadSamples(strings.NewReader(strings.Join(rows, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	model, err := TrainFailureModel(samples)
	if err != nil {
		t.Fatal(err)
	}
	if healthy, failing := model.Probability(300, 1500), model.Probability(331, 2650); healthy >= failing {
		t.Fatalf("healthy %v >= failing %v", healthy, failing)
	}
}
