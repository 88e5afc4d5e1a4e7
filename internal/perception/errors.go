package perception

import (
	"errors"
	"fmt"
)

// ErrSensorFault marks a raw frame that could not be interpreted.
var ErrSensorFault = errors.New("perception: sensor fault")

// SensorFault describes why a frame was rejected.
type SensorFault struct {
	Tick   uint64
	Reason string
}

func (e *SensorFault) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s at tick %d: %s", ErrSensorFault.Error(), e.Tick, e.Reason)
}

func (e *SensorFault) Unwrap() error { return ErrSensorFault }

func faultf(tick uint64, format string, args ...any) error {
	return &SensorFault{Tick: tick, Reason: fmt.Sprintf(format, args...)}
}
