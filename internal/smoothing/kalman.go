// Package smoothing suppresses frame-to-frame jitter in per-frame expression
// trajectories.
//
// The filter models each trajectory value as a random walk observed with
// fixed measurement noise. The caller's variance is the random walk's
// per-frame state variance: a small variance makes the estimator trust its
// own prediction (heavy smoothing), a large variance lets it follow every raw
// frame (loose tracking). A forward Kalman pass is followed by a
// Rauch-Tung-Striebel backward pass so the smoothed curve does not lag the
// input.
package smoothing

import "math"

// MeasurementVariance is the fixed per-frame observation noise
const MeasurementVariance = 1e-5

// Smooth returns a smoothed copy of values. Trajectories shorter than two
// frames are returned unchanged. stateVariance must be positive.
func Smooth(values []float64, stateVariance float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)
	if n < 2 || stateVariance <= 0 || math.IsNaN(stateVariance) {
		return out
	}

	filtered := make([]float64, n)
	filteredVar := make([]float64, n)
	predictedVar := make([]float64, n)

	// Forward pass. The first frame seeds the state.
	for k := 0; k < n; k++ {
		var prior, priorVar float64
		if k == 0 {
			prior = values[0]
			priorVar = MeasurementVariance
		} else {
			prior = filtered[k-1]
			priorVar = filteredVar[k-1] + stateVariance
		}
		predictedVar[k] = priorVar

		gain := priorVar / (priorVar + MeasurementVariance)
		filtered[k] = prior + gain*(values[k]-prior)
		filteredVar[k] = (1 - gain) * priorVar
	}

	// Backward pass
	out[n-1] = filtered[n-1]
	for k := n - 2; k >= 0; k-- {
		c := filteredVar[k] / predictedVar[k+1]
		out[k] = filtered[k] + c*(out[k+1]-filtered[k])
	}
	return out
}

// TotalVariation sums the absolute frame-to-frame changes of a trajectory
func TotalVariation(values []float64) float64 {
	var total float64
	for i := 1; i < len(values); i++ {
		total += math.Abs(values[i] - values[i-1])
	}
	return total
}
