package local

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
)

// split partitions rows into train and test sets. The test set holds
// ceil(n * testFraction / 100) rows; classification splits keep class
// proportions.
func split(t table.Table, target string, testFraction int, kind compute.TaskKind, seed uint64) (compute.SplitArtifacts, error) {
	if testFraction < 1 || testFraction > 99 {
		return compute.SplitArtifacts{}, fmt.Errorf("%w: test percentage %d out of range [1,99]", ErrInvalidInput, testFraction)
	}
	tIdx := t.ColumnIndex(target)
	if tIdx < 0 {
		return compute.SplitArtifacts{}, fmt.Errorf("%w: target variable %q not found", ErrInvalidInput, target)
	}
	y := parseColumn(columnAt(t, tIdx))
	if !y.numeric || y.nMiss > 0 {
		return compute.SplitArtifacts{}, fmt.Errorf("%w: target variable %q must be numeric without missing values", ErrInvalidInput, target)
	}

	n := t.NumRows()
	nTest := (n*testFraction + 99) / 100
	if nTest >= n {
		return compute.SplitArtifacts{}, fmt.Errorf("%w: %d rows leave no training data at %d%% test", ErrInvalidInput, n, testFraction)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	var trainIdx, testIdx []int
	if kind == compute.Classification {
		trainIdx, testIdx = stratified(y.values, nTest, rng)
	} else {
		perm := rng.Perm(n)
		testIdx, trainIdx = perm[:nTest], perm[nTest:]
	}

	features, err := t.DropColumn(target)
	if err != nil {
		return compute.SplitArtifacts{}, err
	}

	a := compute.SplitArtifacts{
		XTrain: subset(features, trainIdx),
		XTest:  subset(features, testIdx),
		YTrain: pick(y.values, trainIdx),
		YTest:  pick(y.values, testIdx),
	}

	return a, nil
}

// stratified allocates nTest rows across classes by largest remainder and
// samples each class without replacement.
func stratified(y []float64, nTest int, rng *rand.Rand) (train, test []int) {
	byClass := make(map[float64][]int)
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	type share struct {
		class float64
		count int
		rem   float64
	}
	n := len(y)
	shares := make([]share, len(classes))
	assigned := 0
	for i, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		count := int(exact)
		shares[i] = share{class: c, count: count, rem: exact - float64(count)}
		assigned += count
	}
	order := slices.Clone(shares)
	slices.SortStableFunc(order, func(a, b share) int {
		return cmp.Compare(b.rem, a.rem)
	})
	counts := make(map[float64]int, len(shares))
	for _, s := range shares {
		counts[s.class] = s.count
	}
	for i := 0; assigned < nTest; i = (i + 1) % len(order) {
		c := order[i].class
		if counts[c] < len(byClass[c]) {
			counts[c]++
			assigned++
		}
	}

	for _, c := range classes {
		idx := slices.Clone(byClass[c])
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		test = append(test, idx[:counts[c]]...)
		train = append(train, idx[counts[c]:]...)
	}
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })

	return train, test
}

func subset(t table.Table, idx []int) table.Table {
	rows := make([][]string, len(idx))
	for i, r := range idx {
		rows[i] = slices.Clone(t.Rows[r])
	}

	return table.Table{Header: slices.Clone(t.Header), Rows: rows}
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = values[r]
	}

	return out
}
