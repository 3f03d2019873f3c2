package local

import (
	"fmt"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minDistinct is the number of distinct values a column must exceed to be
// treated as continuous.
const minDistinct = 10

const (
	msgNothingToScale = "No continuous numeric columns to scale."
	msgStandardScaled = "Scaling applied using StandardScaler."
	msgMinMaxScaled   = "Scaling applied using MinMaxScaler."
)

// scale returns the scaled table and a note naming the scaler, or saying that
// no column qualified.
func scale(t table.Table, method compute.ScaleMethod, target string) (table.Table, string, error) {
	tIdx := -1
	if target != "" {
		if tIdx = t.ColumnIndex(target); tIdx < 0 {
			return table.Table{}, "", fmt.Errorf("%w: target variable %q not found", ErrInvalidInput, target)
		}
	}

	res := t.Clone()
	scaled := 0
	for i := range t.Header {
		if i == tIdx {
			continue
		}
		c := parseColumn(columnAt(t, i))
		if !c.numeric || distinct(c) <= minDistinct {
			continue
		}
		scaled++

		transform := scaler(method, c.present())
		for r, row := range res.Rows {
			if c.missing[r] {
				continue
			}
			row[i] = formatFloat(transform(c.values[r]))
		}
	}

	switch {
	case scaled == 0:
		return res, msgNothingToScale, nil
	case method == compute.MinMax:
		return res, msgMinMaxScaled, nil
	default:
		return res, msgStandardScaled, nil
	}
}

func scaler(method compute.ScaleMethod, x []float64) func(float64) float64 {
	switch method {
	case compute.MinMax:
		lo, hi := floats.Min(x), floats.Max(x)
		span := hi - lo
		return func(v float64) float64 {
			if span == 0 {
				return 0
			}

			return (v - lo) / span
		}
	default:
		mean, std := stat.PopMeanStdDev(x, nil)
		return func(v float64) float64 {
			if std == 0 {
				return 0
			}

			return (v - mean) / std
		}
	}
}

func distinct(c column) int {
	seen := make(map[float64]struct{})
	for i, v := range c.values {
		if !c.missing[i] {
			seen[v] = struct{}{}
		}
	}

	return len(seen)
}
