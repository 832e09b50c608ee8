package usecase

import "time"

const (
	// DefaultDivisionPrecision is the number of decimal places kept by every
	// division in the calculation services.
	DefaultDivisionPrecision int32 = 28

	// DefaultPriceFetchConcurrency bounds concurrent price lookups during a
	// recalculation.
	DefaultPriceFetchConcurrency = 8

	// DefaultRecalculationTimeout bounds one portfolio recalculation including
	// repository reads and the final save.
	DefaultRecalculationTimeout = 30 * time.Second
)
