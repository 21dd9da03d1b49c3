package schema

import (
	"errors"
	"fmt"
	"time"
)

// Model usage sentinels. These indicate a caller bug or an undersized
// batch, not bad data, so they abort the run instead of quarantining.
var (
	// ErrModelNotFitted is returned when scoring is attempted before Fit.
	ErrModelNotFitted = errors.New("outlier model is not fitted")

	// ErrInsufficientSamples is returned when Fit is called with fewer
	// samples than the configured minimum.
	ErrInsufficientSamples = errors.New("insufficient samples to fit outlier model")
)

// DataQualityError reports a structural violation in a vehicle partition,
// such as out-of-order timestamps. It fails the partition fast; the record
// is never silently reordered or dropped.
type DataQualityError struct {
	VehicleID string
	Timestamp time.Time
	Reason    string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality violation for vehicle %s at %s: %s",
		e.VehicleID, e.Timestamp.Format(time.RFC3339), e.Reason)
}

// IsDataQualityError reports whether err wraps a DataQualityError.
func IsDataQualityError(err error) bool {
	var dqe *DataQualityError
	return errors.As(err, &dqe)
}
