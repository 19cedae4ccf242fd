package guajira

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Riohacha":           "riohacha",
		"  Maicao  ":         "maicao",
		"San Juan del Cesar": "san_juan_del_cesar",
		"LA JAGUA DEL PILAR": "la_jagua_del_pilar",
		"uribia":             "uribia",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	m, err := Lookup("San Juan del Cesar")
	if err != nil {
		t.Fatal(err)
	}
	if m.Latitude != 10.7695 || m.Longitude != -73.0030 {
		t.Errorf("unexpected coordinates: %+v", m)
	}

	_, err = Lookup("bogota")
	if !errors.Is(err, ErrUnknownMunicipality) {
		t.Errorf("expected ErrUnknownMunicipality, got %v", err)
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 13 {
		t.Fatalf("got %d municipalities, want 13", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestResolveFallsBackToGeocode(t *testing.T) {
	fake := func(city string) (Municipality, error) {
		return Municipality{Name: Normalize(city), Latitude: 4.6, Longitude: -74.08}, nil
	}

	// Known municipality never hits the geocoder.
	m, err := Resolve("riohacha", func(string) (Municipality, error) {
		t.Fatal("geocoder called for a registered municipality")
		return Municipality{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "riohacha" {
		t.Errorf("got %q", m.Name)
	}

	m, err = Resolve("Bogota", fake)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "bogota" || m.Latitude != 4.6 {
		t.Errorf("unexpected geocoded municipality: %+v", m)
	}

	if _, err := Resolve("Bogota", nil); !errors.Is(err, ErrUnknownMunicipality) {
		t.Errorf("expected ErrUnknownMunicipality without geocoder, got %v", err)
	}
}
