// Package samples embeds the bundled example datasets.
package samples

import (
	_ "embed"
	"slices"
	"strings"
)

//go:embed iris.csv
var iris []byte

// Sample is a bundled dataset a session can be cloned from.
type Sample struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Target      string `json:"target"`
	Task        string `json:"task"`
	Data        []byte `json:"-"`
}

var catalog = []Sample{
	{
		ID:          "iris",
		Name:        "Iris",
		Description: "Fisher's iris measurements: 150 flowers, 4 features, 3 species.",
		Target:      "species",
		Task:        "classification",
		Data:        iris,
	},
}

// List returns the bundled samples ordered by id.
func List() []Sample {
	out := slices.Clone(catalog)
	slices.SortFunc(out, func(a, b Sample) int {
		return strings.Compare(a.ID, b.ID)
	})

	return out
}

// Get returns the sample with the given id.
func Get(id string) (Sample, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}

	return Sample{}, false
}

// Iris returns a copy of the iris dataset as CSV.
func Iris() []byte {
	return slices.Clone(iris)
}
