package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// SplitIndices shuffles 0..n-1 with seed and cuts it into train, validation
// and test index sets. Ratios are fractions of n; whatever is left is train.
func SplitIndices(n int, valRatio, testRatio float64, seed int64) (train, val, test []int, err error) {
	if n <= 0 {
		return nil, nil, nil, errors.New("n must be positive")
	}
	if err := checkRatios(valRatio, testRatio); err != nil {
		return nil, nil, nil, err
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)

	nTest := int(math.Round(float64(n) * testRatio))
	nVal := int(math.Round(float64(n) * valRatio))
	if nTest+nVal > n {
		nVal = n - nTest
	}
	test = indices[:nTest]
	val = indices[nTest : nTest+nVal]
	train = indices[nTest+nVal:]
	return train, val, test, nil
}

// StratifiedSplit splits per label so every partition keeps the label mix of
// the full set. Indexes within each partition are returned in ascending
// order.
func StratifiedSplit(labels []int, valRatio, testRatio float64, seed int64) (train, val, test []int, err error) {
	if len(labels) == 0 {
		return nil, nil, nil, errors.New("labels is empty")
	}
	if err := checkRatios(valRatio, testRatio); err != nil {
		return nil, nil, nil, err
	}

	byLabel := make(map[int][]int)
	for i, label := range labels {
		byLabel[label] = append(byLabel[label], i)
	}
	classes := make([]int, 0, len(byLabel))
	for label := range byLabel {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	for k, label := range classes {
		members := byLabel[label]
		tr, va, te, err := SplitIndices(len(members), valRatio, testRatio, seed+int64(k))
		if err != nil {
			return nil, nil, nil, err
		}
		train = append(train, pick(members, tr)...)
		val = append(val, pick(members, va)...)
		test = append(test, pick(members, te)...)
	}
	sort.Ints(train)
	sort.Ints(val)
	sort.Ints(test)
	return train, val, test, nil
}

func checkRatios(valRatio, testRatio float64) error {
	if valRatio < 0 || testRatio < 0 {
		return errors.New("ratios must not be negative")
	}
	if valRatio+testRatio >= 1 {
		return errors.New("val and test ratios must leave room for train")
	}
	return nil
}

func pick(members, positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = members[p]
	}
	return out
}
