package repository

import (
	"errors"
	"fmt"

	"github.com/okian/calorank/pkg/metrics"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("user not ranked")
	ErrBackend  = errors.New("backing store failure")
)

func errInvalidID(id string) error {
	return fmt.Errorf("invalid workout id %q", id)
}

func backendErr(op string, err error) error {
	metrics.RecordErrorByComponent("repository", op)
	return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
}
