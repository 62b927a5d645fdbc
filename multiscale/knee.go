package multiscale

// Knee locates the knee of a descending convex curve, kneedle style:
// both axes are normalized to [0,1], the curve is flipped into a
// concave increasing one, and the difference curve against the diagonal
// is scanned left to right. A knee is confirmed where the difference
// curve falls below the threshold set at the latest local extremum;
// higher sensitivity demands a sharper drop. The returned position is
// 1-based on the curve's x axis (1..len(values)).
//
// The scan reports the first confirmed knee, the "simplest elbow",
// rather than the global maximum of the difference curve. This is a
// variant of the kneedle method, not a port of the kneed library's
// KneeLocator: a local minimum both resets the threshold and moves the
// candidate, so confirmed indices can sit one position before
// KneeLocator's on curves with a sharp cliff. Ties and plateau behavior
// are implementation-defined; callers wanting a stable baseline should
// lock observed outputs in regression tests.
func Knee(values []float64, sensitivity float64) (int, bool) {
	n := len(values)
	if n < 3 {
		return 0, false
	}

	ymin, ymax := values[0], values[0]
	for _, v := range values[1:] {
		if v < ymin {
			ymin = v
		}
		if v > ymax {
			ymax = v
		}
	}
	if ymax == ymin {
		return 0, false
	}

	// Normalize x, flip y so a convex decreasing curve becomes concave
	// increasing, and take the vertical distance from the diagonal.
	d := make([]float64, n)
	for i := range d {
		xn := float64(i) / float64(n-1)
		yt := (ymax - values[i]) / (ymax - ymin)
		d[i] = yt - xn
	}

	maxima := make([]bool, n)
	minima := make([]bool, n)
	firstMax := -1
	for i := 1; i < n-1; i++ {
		if d[i] >= d[i-1] && d[i] >= d[i+1] {
			maxima[i] = true
			if firstMax < 0 {
				firstMax = i
			}
		}
		if d[i] <= d[i-1] && d[i] <= d[i+1] {
			minima[i] = true
		}
	}
	if firstMax < 0 {
		return 0, false
	}

	meanDx := 1 / float64(n-1)

	var (
		threshold      float64
		thresholdIndex int
	)
	for i := firstMax; i < n-1; i++ {
		if maxima[i] {
			threshold = d[i] - sensitivity*meanDx
			thresholdIndex = i
		}
		if minima[i] {
			threshold = 0
			thresholdIndex = i
		}
		if d[i] < threshold {
			return thresholdIndex + 1, true
		}
	}

	return 0, false
}

// SelectComponents returns the number of leading eigenvalues worth
// keeping. It prefers the knee of the spectrum; without a confirmed
// knee it falls back to the index after the largest consecutive
// eigenvalue drop, and when that still selects fewer than 3 components,
// to the second-largest drop plus one. The result is clamped to
// [2, len(values)].
func SelectComponents(values []float64, sensitivity float64) int {
	m, ok := Knee(values, sensitivity)
	if !ok {
		m = largestDropIndex(values, 0) + 1
		if m < 3 {
			m = largestDropIndex(values, 1) + 2
		}
	}

	if m < 2 {
		m = 2
	}
	if m > len(values) {
		m = len(values)
	}

	return m
}

// largestDropIndex returns the index of the rank-th largest consecutive
// drop values[i] - values[i+1] (rank 0 = largest).
func largestDropIndex(values []float64, rank int) int {
	if len(values) < 2 {
		return 0
	}

	type drop struct {
		index int
		size  float64
	}

	best := drop{index: 0, size: values[0] - values[1]}
	second := drop{index: -1, size: 0}
	for i := 1; i < len(values)-1; i++ {
		size := values[i] - values[i+1]
		switch {
		case size > best.size:
			second = best
			best = drop{index: i, size: size}
		case second.index < 0 || size > second.size:
			second = drop{index: i, size: size}
		}
	}

	if rank > 0 && second.index >= 0 {
		return second.index
	}
	return best.index
}
