package stagger

import (
	"fmt"
	"math"

	"alpharai/internal/types"
)

// Prices splits one entry anchor into a ladder of k prices running from the
// anchor toward the pivot (the stop-loss). The pivot supplies only the
// signed direction and the available distance; the ladder never reaches it.
func Prices(anchor, pivot float64, k int, method types.StaggerMethod) ([]float64, error) {
	if k < 1 {
		return nil, fmt.Errorf("stagger count must be >= 1, got %d", k)
	}
	if k == 1 {
		return []float64{anchor}, nil
	}

	d := math.Abs(pivot - anchor)
	sign := -1.0
	if pivot > anchor {
		sign = 1.0
	}

	switch method {
	case types.StaggerNone:
		out := make([]float64, k)
		for i := range out {
			out[i] = anchor
		}
		return out, nil

	case types.StaggerLinear:
		out := make([]float64, k)
		for i := 0; i < k; i++ {
			out[i] = anchor + sign*d*float64(i)/float64(k)
		}
		return out, nil

	case types.StaggerLogarithmic:
		out := make([]float64, k)
		for i := 0; i < k; i++ {
			out[i] = anchor + sign*(math.Exp(math.Log(d+1)*float64(i)/float64(k))-1)
		}
		return out, nil

	case types.StaggerFibonacci:
		return fibonacciLadder(anchor, sign, d, k), nil

	default:
		return nil, fmt.Errorf("unknown stagger method %q", method)
	}
}

// fibonacciLadder spaces rungs by cumulative Fibonacci ratios. The sequence
// has length k+2 starting [0, 1]; cumulative sums over the total define the
// step fractions, and the last computed level is dropped so the ladder
// keeps length k.
func fibonacciLadder(anchor, sign, d float64, k int) []float64 {
	fib := make([]float64, k+2)
	fib[1] = 1
	for i := 2; i < len(fib); i++ {
		fib[i] = fib[i-1] + fib[i-2]
	}

	// Ratios are taken against the first k+1 terms, so the k+1 levels end
	// at 1.0 and truncation drops the rung that would sit on the pivot.
	total := 0.0
	for _, v := range fib[:k+1] {
		total += v
	}

	levels := make([]float64, 0, k+1)
	cum := 0.0
	for i := 0; i < k+1; i++ {
		cum += fib[i]
		levels = append(levels, cum/total)
	}

	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = anchor + sign*d*levels[i]
	}
	return out
}

// Sizes splits a total size across k rungs with the same ladder shapes,
// clamped to maxSize per rung. The same shape laws as Prices apply: length
// k, first element equals size.
func Sizes(size, maxSize float64, k int, method types.StaggerMethod) ([]float64, error) {
	rungs, err := Prices(size, maxSize, k, method)
	if err != nil {
		return nil, err
	}
	for i := range rungs {
		if maxSize > 0 && rungs[i] > maxSize {
			rungs[i] = maxSize
		}
	}
	return rungs, nil
}

// OffsetEntry applies the configured entry offset before staggering. A
// positive offset always shifts the anchor toward the stop, for LONG and
// SHORT alike; a negative offset shifts it away.
func OffsetEntry(entry, stopLoss, offset float64) float64 {
	if stopLoss == entry || offset == 0 {
		return entry
	}
	towardStop := 1.0
	if stopLoss < entry {
		towardStop = -1.0
	}
	return entry + offset*towardStop
}
