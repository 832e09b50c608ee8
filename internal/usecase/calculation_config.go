package usecase

// CalculationConfig carries the numeric settings of the calculation services.
// It is built once at startup and passed to the service constructors instead
// of mutating the decimal package's global division precision.
type CalculationConfig struct {
	DivisionPrecision int32
}

// DefaultCalculationConfig returns the 28 decimal place configuration.
func DefaultCalculationConfig() CalculationConfig {
	return CalculationConfig{DivisionPrecision: DefaultDivisionPrecision}
}

func (c CalculationConfig) precision() int32 {
	if c.DivisionPrecision <= 0 {
		return DefaultDivisionPrecision
	}
	return c.DivisionPrecision
}
