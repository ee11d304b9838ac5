package health

import (
	"fmt"
	"time"
)

// MetricType identifies a health quantity, e.g. StepCount.
type MetricType string

// String makes MetricType satisfy the fmt.Stringer interface.
func (m MetricType) String() string {
	return string(m)
}

// PlatformType is a MetricType that has been resolved by a Platform.
type PlatformType struct {
	Metric MetricType
	Unit   string
}

// String makes PlatformType satisfy the fmt.Stringer interface.
func (p PlatformType) String() string {
	return fmt.Sprintf("%s[%s]", p.Metric, p.Unit)
}

// AuthorizationState is the platform's verdict for a type.
type AuthorizationState int

const (
	Undetermined AuthorizationState = iota
	Denied
	Granted
)

// String provides a human-readable representation of the AuthorizationState.
func (s AuthorizationState) String() string {
	switch s {
	case Undetermined:
		return "Undetermined"
	case Denied:
		return "Denied"
	case Granted:
		return "Granted"
	default:
		return "Unknown"
	}
}

// ParseAuthorizationState is the inverse of AuthorizationState.String.
func ParseAuthorizationState(s string) (AuthorizationState, error) {
	switch s {
	case "Undetermined", "":
		return Undetermined, nil
	case "Denied":
		return Denied, nil
	case "Granted":
		return Granted, nil
	default:
		return Undetermined, fmt.Errorf("unknown authorization state %q", s)
	}
}

// Aggregation selects how samples in a window are combined.
type Aggregation int

const (
	// AggregateSum is the cumulative sum of all matching samples.
	AggregateSum Aggregation = iota
)

// String makes Aggregation satisfy the fmt.Stringer interface.
func (a Aggregation) String() string {
	if a == AggregateSum {
		return "sum"
	}
	return "unknown"
}

// Quantity is a value with its unit.
type Quantity struct {
	Value float64
	Unit  string
}

// Sample is a single stored quantity over an interval.
type Sample struct {
	ID       string
	Type     PlatformType
	Quantity Quantity
	Start    time.Time
	End      time.Time
}
