package pipeline

import (
	"fmt"

	"github.com/absmach/tabula/compute"
)

// Kind identifies a preprocessing stage.
type Kind uint8

const (
	Statistics Kind = iota + 1
	MissingCheck
	MissingHandle
	Encode
	Scale
	Split
	Restore
)

var kindNames = map[Kind]string{
	Statistics:    compute.StageStatistics,
	MissingCheck:  compute.StageMissingCheck,
	MissingHandle: compute.StageMissingHandle,
	Encode:        compute.StageEncode,
	Scale:         compute.StageScale,
	Split:         compute.StageSplit,
	Restore:       compute.StageRestore,
}

// Kinds lists every stage kind in pipeline order.
func Kinds() []Kind {
	return []Kind{Statistics, MissingCheck, MissingHandle, Encode, Scale, Split, Restore}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: unknown stage %d", ErrInvalidParameter, uint8(k))
	}

	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed

	return nil
}

// ParseKind resolves a stage name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown stage %q", ErrInvalidParameter, name)
}

// Stage is one requested stage run with its parameters. Method applies to
// Scale, TestFraction (a percentage) to Split.
type Stage struct {
	Kind         Kind                `json:"stage"`
	Method       compute.ScaleMethod `json:"method,omitempty"`
	TestFraction int                 `json:"test_percentage,omitempty"`
}

func (s Stage) validate() error {
	if _, ok := runners[s.Kind]; !ok {
		return fmt.Errorf("%w: unknown stage %d", ErrInvalidParameter, uint8(s.Kind))
	}

	switch s.Kind {
	case Scale:
		if !s.Method.Valid() {
			return fmt.Errorf("%w: unknown scaling method %q", ErrInvalidParameter, s.Method)
		}
	case Split:
		if s.TestFraction < 1 || s.TestFraction > 99 {
			return fmt.Errorf("%w: test percentage %d out of range [1,99]", ErrInvalidParameter, s.TestFraction)
		}
	}

	return nil
}

// State is the position of a session in the pipeline.
type State uint8

const (
	Uploaded State = iota + 1
	StatisticsLoaded
	TargetSelected
	MissingChecked
	MissingHandled
	Encoded
	Scaled
	SplitDone
	ReadyForTraining
)

var stateNames = map[State]string{
	Uploaded:         "uploaded",
	StatisticsLoaded: "statistics_loaded",
	TargetSelected:   "target_selected",
	MissingChecked:   "missing_checked",
	MissingHandled:   "missing_handled",
	Encoded:          "encoded",
	Scaled:           "scaled",
	SplitDone:        "split",
	ReadyForTraining: "ready_for_training",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st

			return nil
		}
	}

	return fmt.Errorf("%w: unknown state %q", ErrInvalidParameter, text)
}
