package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/absmach/tabula/compute"
	"gopkg.in/yaml.v3"
)

const RecipeSchema = "v1"

// Recipe is a stored sequence of stages applied after selecting a target.
type Recipe struct {
	SchemaVersion string `yaml:"schema_version"`
	Target        string `yaml:"target"`
	Steps         []Step `yaml:"steps"`
}

type Step struct {
	Stage          string `yaml:"stage"`
	Method         string `yaml:"method,omitempty"`
	TestPercentage int    `yaml:"test_percentage,omitempty"`
}

// ParseRecipe decodes a YAML recipe and checks its schema version.
func ParseRecipe(raw []byte) (Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Recipe{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	if r.SchemaVersion == "" {
		r.SchemaVersion = RecipeSchema
	}
	if r.SchemaVersion != RecipeSchema {
		return Recipe{}, fmt.Errorf("%w: recipe schema_version %q not supported (want %q)", ErrInvalidParameter, r.SchemaVersion, RecipeSchema)
	}
	if _, err := r.Stages(); err != nil {
		return Recipe{}, err
	}

	return r, nil
}

func LoadRecipe(path string) (Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, err
	}

	return ParseRecipe(raw)
}

// Stages converts the steps to validated stages. A scale step without a
// method uses standard scaling.
func (r Recipe) Stages() ([]Stage, error) {
	stages := make([]Stage, 0, len(r.Steps))
	for i, step := range r.Steps {
		kind, err := ParseKind(step.Stage)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		st := Stage{Kind: kind, Method: compute.ScaleMethod(step.Method), TestFraction: step.TestPercentage}
		if kind == Scale && st.Method == "" {
			st.Method = compute.Standard
		}
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		stages = append(stages, st)
	}

	return stages, nil
}

// Apply selects the target, when set, and runs every step in order. It stops
// at the first failing step and returns the results committed so far.
func (r Recipe) Apply(ctx context.Context, c *Controller) ([]Result, error) {
	stages, err := r.Stages()
	if err != nil {
		return nil, err
	}
	if r.Target != "" {
		if _, err := c.SetTarget(r.Target); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(stages))
	for i, st := range stages {
		res, err := c.Run(ctx, st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st.Kind, err)
		}
		results = append(results, res)
	}

	return results, nil
}
