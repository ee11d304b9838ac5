package health

import "context"

// Platform is the device health store as seen by stepctl.
//
// IsDataAvailable, ResolveType and AuthorizationStatus are local lookups and
// must not block. The remaining methods may block on the store and honour ctx;
// callers run them off the UI context.
type Platform interface {
	// IsDataAvailable reports whether this device has a health store at all.
	IsDataAvailable() bool

	// ResolveType maps a metric onto a store type.
	ResolveType(m MetricType) (PlatformType, bool)

	// AuthorizationStatus returns the current verdict for t without side effects.
	AuthorizationStatus(t PlatformType) AuthorizationState

	// RequestAuthorization asks for read access to read and write access to
	// write. It returns once the user (or policy) has decided. A nil error does
	// not imply Granted; it means the request itself completed.
	RequestAuthorization(ctx context.Context, read, write []PlatformType) error

	// ExecuteAggregateQuery aggregates all samples of t that match window.
	// A nil Quantity with a nil error means no samples matched.
	ExecuteAggregateQuery(ctx context.Context, t PlatformType, window TimeWindow, agg Aggregation) (*Quantity, error)

	// SaveSample stores one sample of t covering window.
	SaveSample(ctx context.Context, t PlatformType, q Quantity, window TimeWindow) error
}

// Sum adds up the samples of t that match window. Platforms share it so the
// window semantics stay identical across backends.
func Sum(samples []Sample, t PlatformType, window TimeWindow) *Quantity {
	var (
		total float64
		found bool
	)
	for _, s := range samples {
		if s.Type.Metric != t.Metric || !window.Matches(s) {
			continue
		}
		total += s.Quantity.Value
		found = true
	}
	if !found {
		return nil
	}
	return &Quantity{Value: total, Unit: t.Unit}
}
