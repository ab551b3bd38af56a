package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultK       = 3
	DefaultSeed    = 42
	DefaultMaxIter = 300
)

var (
	ErrInvalidK        = errors.New("number of clusters must be at least 1")
	ErrTooManyClusters = errors.New("number of clusters must be less than or equal to the number of selected cities")
)

type Result struct {
	Cities []string
	Years  []int
	// Labels[i] is the cluster of Cities[i]. Clusters are numbered in the
	// order their first city appears.
	Labels     []int
	Centers    [][]float64
	Inertia    float64
	Iterations int
}

// Assignments groups city names by cluster label.
func (r *Result) Assignments() map[int][]string {
	groups := make(map[int][]string)
	for i, label := range r.Labels {
		groups[label] = append(groups[label], r.Cities[i])
	}
	return groups
}

// Run clusters the rows of m with k-means++ seeding followed by Lloyd
// iterations. The same seed always gives the same result.
func Run(m *Matrix, k int, seed int64) (*Result, error) {
	if m == nil || len(m.Values) == 0 {
		return nil, ErrNoCities
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	if k > len(m.Values) {
		return nil, fmt.Errorf("%w: k=%d, cities=%d", ErrTooManyClusters, k, len(m.Values))
	}

	points := m.Values
	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < DefaultMaxIter {
		iter++
		changed := false
		for i, p := range points {
			best, _ := nearest(p, centers)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCenters(points, labels, centers)
	}

	var inertia float64
	for i, p := range points {
		d := floats.Distance(p, centers[labels[i]], 2)
		inertia += d * d
	}

	labels, centers = relabel(labels, centers)
	return &Result{
		Cities:     append([]string(nil), m.Cities...),
		Years:      append([]int(nil), m.Years...),
		Labels:     labels,
		Centers:    centers,
		Inertia:    inertia,
		Iterations: iter,
	}, nil
}

// seedCenters picks the first centre uniformly and each following one with
// probability proportional to its squared distance from the nearest centre.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.Intn(len(points))]...))

	d2 := make([]float64, len(points))
	for len(centers) < k {
		for i, p := range points {
			_, d := nearest(p, centers)
			d2[i] = d * d
		}
		total := floats.Sum(d2)

		idx := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, w := range d2 {
				if w == 0 {
					continue
				}
				idx = i
				target -= w
				if target <= 0 {
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), points[idx]...))
	}
	return centers
}

func nearest(p []float64, centers [][]float64) (int, float64) {
	best, bestDist := 0, math.MaxFloat64
	for j, c := range centers {
		d := floats.Distance(p, c, 2)
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

// updateCenters moves each centre to the mean of its members. A centre that
// lost all members stays where it was.
func updateCenters(points [][]float64, labels []int, centers [][]float64) {
	dim := len(centers[0])
	counts := make([]int, len(centers))
	sums := make([][]float64, len(centers))
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for j := range centers {
		if counts[j] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[j]), sums[j])
		centers[j] = sums[j]
	}
}

func relabel(labels []int, centers [][]float64) ([]int, [][]float64) {
	mapping := make(map[int]int, len(centers))
	for _, l := range labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}
	// centres without members go last, in their original order
	unused := make([]int, 0)
	for j := range centers {
		if _, ok := mapping[j]; !ok {
			unused = append(unused, j)
		}
	}
	sort.Ints(unused)
	for _, j := range unused {
		mapping[j] = len(mapping)
	}

	newLabels := make([]int, len(labels))
	for i, l := range labels {
		newLabels[i] = mapping[l]
	}
	newCenters := make([][]float64, len(centers))
	for old, nw := range mapping {
		newCenters[nw] = centers[old]
	}
	return newLabels, newCenters
}
