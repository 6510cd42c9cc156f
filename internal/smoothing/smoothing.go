// Package smoothing stabilizes noisy per-chunk classifications before they
// are allowed to change the soundscape. Single short utterances routinely
// misclassify; smoothing against a bounded window of recently accepted
// tuples keeps one outlier from swinging the whole mix.
package smoothing

import (
	"math"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
)

// WindowSize is the number of recently accepted tuples consulted per pass.
const WindowSize = 5

// Smooth combines the current classification with the recent accepted
// history (ordered oldest to newest) and returns the stabilized tuple.
//
// Categorical fields resolve independently to the mode of history+current,
// with ties broken in favor of the value appearing closest to the end of the
// combined sequence. Intensity is a recency-weighted average: historical
// sample i of k carries weight i/k+1, the current sample carries weight 1,
// and the result is rounded to 2 decimal places.
//
// An empty history returns current unchanged, so a session's first tuple is
// never altered.
func Smooth(current narrative.Tuple, recent []narrative.Tuple) narrative.Tuple {
	if len(recent) == 0 {
		return current
	}

	moods := make([]narrative.Mood, 0, len(recent)+1)
	settings := make([]narrative.Setting, 0, len(recent)+1)
	events := make([]narrative.Event, 0, len(recent)+1)
	for _, t := range recent {
		moods = append(moods, t.Mood)
		settings = append(settings, t.Setting)
		events = append(events, t.Event)
	}
	moods = append(moods, current.Mood)
	settings = append(settings, current.Setting)
	events = append(events, current.Event)

	return narrative.Tuple{
		Mood:      mode(moods),
		Setting:   mode(settings),
		Event:     mode(events),
		Intensity: weightedIntensity(current.Intensity, recent),
	}
}

// mode returns the most frequent value in the sequence. On a tie, the value
// whose occurrences sit later in the sequence wins: scanning newest first,
// the first value to reach the maximum count is kept.
func mode[T comparable](values []T) T {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[len(values)-1]
	bestCount := 0
	for i := len(values) - 1; i >= 0; i-- {
		if c := counts[values[i]]; c > bestCount {
			best = values[i]
			bestCount = c
		}
	}
	return best
}

// weightedIntensity computes the recency-weighted average described on
// Smooth. The i/k+1 weighting is intentionally shallow: the oldest sample
// still carries weight 1, the newest just under 2.
func weightedIntensity(current float64, recent []narrative.Tuple) float64 {
	k := float64(len(recent))
	sum := current
	totalWeight := 1.0
	for i, t := range recent {
		w := float64(i)/k + 1
		sum += w * t.Intensity
		totalWeight += w
	}
	return math.Round(sum/totalWeight*100) / 100
}
