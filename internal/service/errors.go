package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenzinsgym/pos/internal/repository"
)

// --- Error Definitions ---
var (
	// ErrInvalidInput is wrapped by every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("operation not allowed for this role")

	ErrMemberNotFound  = fmt.Errorf("member %w", repository.ErrNotFound)
	ErrTrainerNotFound = fmt.Errorf("trainer %w", repository.ErrNotFound)
	ErrPlanNotFound    = fmt.Errorf("membership plan %w", repository.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", repository.ErrNotFound)
	ErrFoodNotFound    = fmt.Errorf("food item %w", repository.ErrNotFound)
	ErrExpenseNotFound = fmt.Errorf("expense %w", repository.ErrNotFound)
	ErrSaleNotFound    = fmt.Errorf("sale %w", repository.ErrNotFound)

	ErrSaleAlreadyPaid   = errors.New("sale is already paid")
	ErrInsufficientStock = errors.New("not enough stock")
)

// invalid tags err as a validation failure while keeping it matchable.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound maps a repository miss to the service level error.
func notFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Human readable code prefixes, one counter per entity.
const (
	memberCodePrefix  = "M"
	trainerCodePrefix = "T"
	productCodePrefix = "PR"
	foodCodePrefix    = "F"
)

// nextCode draws the next sequence for prefix and renders it as e.g. "M007".
func nextCode(ctx context.Context, counters repository.CounterRepository, prefix string) (string, error) {
	n, err := counters.Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("allocate %s code: %w", prefix, err)
	}
	return fmt.Sprintf("%s%03d", prefix, n), nil
}
