// Package guajira holds the registry of La Guajira municipalities the
// downloader operates on, together with their coordinates.
package guajira

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kelvins/geocoder"
)

// Country is the country used when geocoding municipalities that are
// missing from the registry.
const Country = "Colombia"

// ErrUnknownMunicipality is returned when a city name does not resolve
// to a registered municipality.
var ErrUnknownMunicipality = errors.New("unknown municipality")

// Municipality is a place we track wind data for.
type Municipality struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// registry maps normalized municipality names to coordinates. The set
// mirrors the stations tracked by the data API.
var registry = map[string]Municipality{
	"riohacha":           {Name: "riohacha", Latitude: 11.5447, Longitude: -72.9072},
	"maicao":             {Name: "maicao", Latitude: 11.3776, Longitude: -72.2391},
	"uribia":             {Name: "uribia", Latitude: 11.7147, Longitude: -72.2652},
	"manaure":            {Name: "manaure", Latitude: 11.7794, Longitude: -72.4469},
	"fonseca":            {Name: "fonseca", Latitude: 10.8306, Longitude: -72.8517},
	"san_juan_del_cesar": {Name: "san_juan_del_cesar", Latitude: 10.7695, Longitude: -73.0030},
	"albania":            {Name: "albania", Latitude: 11.1608, Longitude: -72.5922},
	"barrancas":          {Name: "barrancas", Latitude: 10.9577, Longitude: -72.7947},
	"distraccion":        {Name: "distraccion", Latitude: 10.8958, Longitude: -72.8869},
	"el_molino":          {Name: "el_molino", Latitude: 10.6528, Longitude: -72.9247},
	"hatonuevo":          {Name: "hatonuevo", Latitude: 11.0694, Longitude: -72.7647},
	"la_jagua_del_pilar": {Name: "la_jagua_del_pilar", Latitude: 10.5108, Longitude: -73.0714},
	"mingueo":            {Name: "mingueo", Latitude: 11.2000, Longitude: -73.3667},
}

// Normalize canonicalizes a city name the same way the data API does:
// trimmed, lowercased, spaces replaced with underscores.
func Normalize(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "_")
}

// Lookup resolves a city name against the registry.
func Lookup(city string) (Municipality, error) {
	m, ok := registry[Normalize(city)]
	if !ok {
		return Municipality{}, fmt.Errorf("%q: %w", city, ErrUnknownMunicipality)
	}
	return m, nil
}

// Names returns the normalized municipality names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered municipality, sorted by name.
func All() []Municipality {
	out := make([]Municipality, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}

// GeocodeFunc resolves a city name to coordinates. It exists so tests
// can avoid the network.
type GeocodeFunc func(city string) (Municipality, error)

// Geocode resolves a municipality outside the registry through the
// Google geocoding API. geocoder.ApiKey must be set by the caller.
func Geocode(city string) (Municipality, error) {
	name := Normalize(city)
	location, err := geocoder.Geocoding(geocoder.Address{
		City:    strings.ReplaceAll(name, "_", " "),
		Country: Country,
	})
	if err != nil {
		return Municipality{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	return Municipality{Name: name, Latitude: location.Latitude, Longitude: location.Longitude}, nil
}

// Resolve looks the city up in the registry and falls back to geocode
// when it is unknown and a geocoder is provided.
func Resolve(city string, geocode GeocodeFunc) (Municipality, error) {
	m, err := Lookup(city)
	if err == nil {
		return m, nil
	}
	if geocode == nil {
		return Municipality{}, err
	}
	return geocode(city)
}
