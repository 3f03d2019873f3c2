package pipeline

import (
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
)

// SplitHolder exposes the split artifacts of a store. Every accessor returns
// ErrSplitNotReady until a split has been committed.
type SplitHolder struct {
	store *Store
}

func (h SplitHolder) Artifacts() (compute.SplitArtifacts, error) {
	a, _, ok := h.store.artifacts()
	if !ok {
		return compute.SplitArtifacts{}, ErrSplitNotReady
	}

	return a, nil
}

// Target returns the target the artifacts were split on.
func (h SplitHolder) Target() (string, error) {
	_, target, ok := h.store.artifacts()
	if !ok {
		return "", ErrSplitNotReady
	}

	return target, nil
}

func (h SplitHolder) XTrain() (table.Table, error) {
	a, err := h.Artifacts()

	return a.XTrain, err
}

func (h SplitHolder) XTest() (table.Table, error) {
	a, err := h.Artifacts()

	return a.XTest, err
}

func (h SplitHolder) YTrain() ([]float64, error) {
	a, err := h.Artifacts()

	return a.YTrain, err
}

func (h SplitHolder) YTest() ([]float64, error) {
	a, err := h.Artifacts()

	return a.YTest, err
}
