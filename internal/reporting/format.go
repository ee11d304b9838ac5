package reporting

import (
	"math"

	"github.com/dustin/go-humanize"

	"stepctl/internal/health"
	"stepctl/internal/metric"
)

// FormatValue renders a reading with thousands separators and its noun,
// e.g. "4,321 steps". Whole numbers print without decimals.
func FormatValue(r metric.QueryResult) string {
	d := health.Describe(r.Metric)
	var number string
	if r.Value == math.Trunc(r.Value) {
		number = humanize.Comma(int64(r.Value))
	} else {
		number = humanize.CommafWithDigits(r.Value, 2)
	}
	label := d.Label
	if label == "" {
		label = r.Unit
	}
	if label == "" {
		return number
	}
	return number + " " + label
}

// Summary renders a one-line summary of a result.
func Summary(r metric.QueryResult) string {
	switch {
	case r.Failure != nil:
		return r.Failure.Detail
	case r.Empty():
		return FormatValue(r) + " (" + r.Advisory + ")"
	default:
		return FormatValue(r)
	}
}

func titleFor(r metric.QueryResult) string {
	return health.Describe(r.Metric).Title
}
