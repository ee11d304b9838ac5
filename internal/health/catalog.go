package health

import "sort"

// Well-known metric identifiers.
const (
	StepCount              MetricType = "stepCount"
	DistanceWalkingRunning MetricType = "distanceWalkingRunning"
	ActiveEnergyBurned     MetricType = "activeEnergyBurned"
	FlightsClimbed         MetricType = "flightsClimbed"
)

// Descriptor holds presentation details for a metric.
type Descriptor struct {
	Metric MetricType
	// Title is shown above the value, e.g. "Steps Today".
	Title string
	// Noun is used in sentences, e.g. "step count".
	Noun string
	Unit string
	// Label follows a displayed value, e.g. "steps".
	Label string
	// EmptyAdvisory is shown when the window holds no samples.
	EmptyAdvisory string
}

var catalog = map[MetricType]Descriptor{
	StepCount: {
		Metric:        StepCount,
		Title:         "Steps Today",
		Noun:          "step count",
		Unit:          "count",
		Label:         "steps",
		EmptyAdvisory: "No steps recorded yet today. Start walking or use the Health app to add steps.",
	},
	DistanceWalkingRunning: {
		Metric:        DistanceWalkingRunning,
		Title:         "Distance Today",
		Noun:          "walking and running distance",
		Unit:          "m",
		Label:         "m",
		EmptyAdvisory: "No distance recorded yet today.",
	},
	ActiveEnergyBurned: {
		Metric:        ActiveEnergyBurned,
		Title:         "Active Energy Today",
		Noun:          "active energy",
		Unit:          "kcal",
		Label:         "kcal",
		EmptyAdvisory: "No active energy recorded yet today.",
	},
	FlightsClimbed: {
		Metric:        FlightsClimbed,
		Title:         "Flights Climbed Today",
		Noun:          "flights climbed",
		Unit:          "count",
		Label:         "flights",
		EmptyAdvisory: "No flights climbed recorded yet today.",
	},
}

// Describe returns the descriptor for m. Unknown metrics get a generic one so
// callers can still render something sensible.
func Describe(m MetricType) Descriptor {
	if d, ok := catalog[m]; ok {
		return d
	}
	return Descriptor{
		Metric:        m,
		Title:         string(m),
		Noun:          string(m),
		EmptyAdvisory: "No samples recorded yet today.",
	}
}

// Known reports whether m is in the built-in catalog.
func Known(m MetricType) bool {
	_, ok := catalog[m]
	return ok
}

// KnownMetrics returns the catalog's metric identifiers in sorted order.
func KnownMetrics() []MetricType {
	out := make([]MetricType, 0, len(catalog))
	for m := range catalog {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
