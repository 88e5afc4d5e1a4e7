package energy

import "errors"

var (
	// ErrEnergyUnderflow is returned when a commit would take the remaining
	// energy below zero. Nothing is deducted; the caller drains and parks.
	ErrEnergyUnderflow = errors.New("energy: underflow")
	// ErrAlreadyCommitted guards against charging one tick twice.
	ErrAlreadyCommitted = errors.New("energy: tick already committed")
)
