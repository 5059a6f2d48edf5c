package providers

import (
	"fmt"
	"time"

	"github.com/gookit/validate"

	"sud/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (v *CnfValidator) Validate() error {
	res := validate.Struct(v.conf)
	if !res.Validate() {
		return res.Errors
	}
	// Struct tags cannot express the tick range, the timer loses whole
	// minutes when ticks are slower than the commit granularity.
	if v.conf.Usage.TickInterval < time.Second || v.conf.Usage.TickInterval > time.Minute {
		return fmt.Errorf("usage.tickInterval must be between 1s and 60s, got %s", v.conf.Usage.TickInterval)
	}
	return nil
}
