package calculation

import (
	"container/heap"
	"math"
	"sort"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/shock"
)

// Accumulator folds iteration results into streaming statistics without
// retaining every iteration. Means and variances use Welford updates merged
// with Chan's formula. Percentiles come from a bottom-k reservoir whose
// membership depends only on (seed, iteration index), so the sample is the
// same whichever worker saw an iteration. Depletion years are counted exactly.
type Accumulator struct {
	horizon int
	k       int
	seed    uint64
	key     int

	n    int
	mean [][]float64
	m2   [][]float64

	reservoir sampleHeap
	depletion [][]int // [fund][year], year horizon+1 means not depleted

	// Pearson sums for shock attribution against the key quantity's final value.
	sy, syy      float64
	sx, sxx, sxy []float64
	guards       domain.GuardSummary
}

type sample struct {
	priority uint64
	index    int
	values   []domain.YearSeries
}

// sampleHeap is a max-heap on (priority, index) holding the k smallest samples.
type sampleHeap []sample

func (h sampleHeap) Len() int { return len(h) }
func (h sampleHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].index > h[j].index
}
func (h sampleHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sampleHeap) Push(x any)   { *h = append(*h, x.(sample)) }
func (h *sampleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewAccumulator creates an empty accumulator. reservoirSize bounds the number
// of iterations retained for percentiles; percentiles are exact while the
// iteration count does not exceed it.
func NewAccumulator(horizon, reservoirSize int, seed uint64, key domain.Quantity) *Accumulator {
	nq, nf := domain.NumQuantities(), domain.NumFactors()
	a := &Accumulator{
		horizon: horizon,
		k:       reservoirSize,
		seed:    seed,
		key:     key.Index(),
		mean:    make([][]float64, nq),
		m2:      make([][]float64, nq),
		sx:      make([]float64, nf),
		sxx:     make([]float64, nf),
		sxy:     make([]float64, nf),
		guards:  domain.GuardSummary{},
	}
	for q := range a.mean {
		a.mean[q] = make([]float64, horizon)
		a.m2[q] = make([]float64, horizon)
	}
	a.depletion = make([][]int, len(domain.AllFunds()))
	for f := range a.depletion {
		a.depletion[f] = make([]int, horizon+2)
	}
	return a
}

// Count returns the number of iterations folded in.
func (a *Accumulator) Count() int { return a.n }

// Add folds one iteration result in.
func (a *Accumulator) Add(r *domain.IterationResult) {
	a.n++
	n := float64(a.n)
	for q, s := range r.Series {
		mean, m2 := a.mean[q], a.m2[q]
		for t, x := range s {
			d := x - mean[t]
			mean[t] += d / n
			m2[t] += d * (x - mean[t])
		}
	}

	for f, st := range r.Funds {
		year := a.horizon + 1
		if st.DepletionYear != nil {
			year = *st.DepletionYear
		}
		a.depletion[f][year]++
	}

	y := r.Series[a.key].Last()
	a.sy += y
	a.syy += y * y
	if r.Shocks != nil {
		for f, d := range r.Shocks.Draws {
			x := meanOf(d)
			a.sx[f] += x
			a.sxx[f] += x * x
			a.sxy[f] += x * y
		}
	}
	a.guards.Merge(r.Guards)

	a.offer(sample{priority: shock.Priority(a.seed, r.Index), index: r.Index, values: r.Series})
}

func (a *Accumulator) offer(s sample) {
	if a.k <= 0 {
		return
	}
	if a.reservoir.Len() < a.k {
		heap.Push(&a.reservoir, s)
		return
	}
	top := a.reservoir[0]
	if s.priority < top.priority || (s.priority == top.priority && s.index < top.index) {
		a.reservoir[0] = s
		heap.Fix(&a.reservoir, 0)
	}
}

// Merge folds other into a. Merging the same partials in the same order always
// yields bit-identical state.
func (a *Accumulator) Merge(other *Accumulator) {
	if other.n == 0 {
		return
	}
	if a.n == 0 {
		for q := range a.mean {
			copy(a.mean[q], other.mean[q])
			copy(a.m2[q], other.m2[q])
		}
	} else {
		na, nb := float64(a.n), float64(other.n)
		n := na + nb
		for q := range a.mean {
			for t := range a.mean[q] {
				d := other.mean[q][t] - a.mean[q][t]
				a.mean[q][t] += d * nb / n
				a.m2[q][t] += other.m2[q][t] + d*d*na*nb/n
			}
		}
	}
	a.n += other.n

	for f := range a.depletion {
		for y, c := range other.depletion[f] {
			a.depletion[f][y] += c
		}
	}
	a.sy += other.sy
	a.syy += other.syy
	for f := range a.sx {
		a.sx[f] += other.sx[f]
		a.sxx[f] += other.sxx[f]
		a.sxy[f] += other.sxy[f]
	}
	a.guards.Merge(other.guards)
	for _, s := range other.reservoir {
		a.offer(s)
	}
}

// StandardError is the standard error of the mean of the key quantity in the
// final projected year. It is 0 until two iterations have been seen.
func (a *Accumulator) StandardError() float64 {
	if a.n < 2 {
		return 0
	}
	v := a.m2[a.key][a.horizon-1] / float64(a.n-1)
	return math.Sqrt(v / float64(a.n))
}

// Summarize writes quantity, depletion, attribution and guard statistics into
// out. ranks must be ascending.
func (a *Accumulator) Summarize(out *domain.AggregateStatistics, ranks []float64, confidence float64) {
	lo, hi := (1-confidence)/2, 1-(1-confidence)/2

	out.Quantities = make(map[domain.Quantity]domain.QuantityStats, domain.NumQuantities())
	buf := make([]float64, a.reservoir.Len())
	for qi, q := range domain.AllQuantities() {
		years := make([]domain.YearStats, a.horizon)
		for t := range years {
			for i, s := range a.reservoir {
				buf[i] = s.values[qi][t]
			}
			sort.Float64s(buf)

			ys := domain.YearStats{
				Mean:        a.mean[qi][t],
				StdDev:      a.stdDev(qi, t),
				CILower:     percentile(buf, lo),
				CIUpper:     percentile(buf, hi),
				Percentiles: make([]float64, len(ranks)),
			}
			for i, p := range ranks {
				v := percentile(buf, p)
				if i > 0 && v < ys.Percentiles[i-1] {
					v = ys.Percentiles[i-1]
				}
				ys.Percentiles[i] = v
			}
			years[t] = ys
		}
		out.Quantities[q] = domain.QuantityStats{Quantity: q, Years: years}
	}

	out.TrustFunds = make(map[domain.Fund]domain.DepletionStats, len(a.depletion))
	for fi, f := range domain.AllFunds() {
		out.TrustFunds[f] = a.depletionStats(f, a.depletion[fi], ranks)
	}

	out.ShockAttribution = make(map[domain.Factor]float64, len(a.sx))
	for fi, f := range domain.AllFactors() {
		out.ShockAttribution[f] = a.correlation(fi)
	}

	out.Guards = domain.GuardSummary{}
	out.Guards.Merge(a.guards)
}

func (a *Accumulator) stdDev(q, t int) float64 {
	if a.n < 2 {
		return 0
	}
	return math.Sqrt(a.m2[q][t] / float64(a.n-1))
}

func (a *Accumulator) correlation(f int) float64 {
	n := float64(a.n)
	if n < 2 {
		return 0
	}
	cov := a.sxy[f] - a.sx[f]*a.sy/n
	vx := a.sxx[f] - a.sx[f]*a.sx[f]/n
	vy := a.syy - a.sy*a.sy/n
	// Relative thresholds absorb cancellation error in the raw sums.
	if vx <= 1e-12*math.Max(1, a.sxx[f]) || vy <= 1e-12*math.Max(1, a.syy) {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	return math.Max(-1, math.Min(1, r))
}

func (a *Accumulator) depletionStats(f domain.Fund, counts []int, ranks []float64) domain.DepletionStats {
	ds := domain.DepletionStats{Fund: f, Percentiles: make([]float64, len(ranks))}
	var sum float64
	for y := 1; y < len(counts); y++ {
		c := counts[y]
		sum += float64(y * c)
		if y <= a.horizon && c > 0 {
			ds.DepletedCount += c
			if ds.EarliestYear == 0 {
				ds.EarliestYear = y
			}
		}
	}
	if a.n > 0 {
		ds.DepletedShare = float64(ds.DepletedCount) / float64(a.n)
		ds.CensoredMeanYear = sum / float64(a.n)
	}
	for i, p := range ranks {
		ds.Percentiles[i] = histogramPercentile(counts, a.n, p)
	}
	return ds
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// percentile is the linear-interpolation estimator over sorted values.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// histogramPercentile applies the same estimator to integer-valued counts.
func histogramPercentile(counts []int, n int, p float64) float64 {
	if n == 0 {
		return 0
	}
	h := math.Max(0, math.Min(1, p)) * float64(n-1)
	lo := int(math.Floor(h))
	at := func(pos int) float64 {
		cum := 0
		for y, c := range counts {
			cum += c
			if pos < cum {
				return float64(y)
			}
		}
		return float64(len(counts) - 1)
	}
	v := at(lo)
	if lo+1 < n {
		v += (h - float64(lo)) * (at(lo+1) - v)
	}
	return v
}
