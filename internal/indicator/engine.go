package indicator

import (
	"fmt"
	"log"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Engine runs a fixed set of calculators against a history. Each calculator
// is isolated: an error or panic in one becomes a zero-confidence hold for
// that indicator and never affects the others.
type Engine struct {
	calcs []Calculator
}

// NewEngine builds an engine with the standard calculator set.
func NewEngine() *Engine {
	return &Engine{
		calcs: []Calculator{
			NewRSI(14),
			NewMACD(12, 26, 9),
			NewBollinger(20, 2),
			NewMACrossover(10, 21),
			NewVolume(20),
			NewStochastic(14, 3),
			NewWilliamsR(14),
			NewIchimoku(9, 26, 52, 26),
			NewADX(14),
			NewCCI(20),
			NewParabolicSAR(0.02, 0.02, 0.2),
		},
	}
}

// NewEngineWith builds an engine with an explicit calculator set.
func NewEngineWith(calcs ...Calculator) *Engine {
	return &Engine{calcs: calcs}
}

// Calculators returns the configured calculator set.
func (e *Engine) Calculators() []Calculator { return e.calcs }

// CalculateAll runs every calculator and returns one result per calculator
// in registration order. Failures degrade to neutral results.
func (e *Engine) CalculateAll(h *model.History) []model.IndicatorResult {
	results := make([]model.IndicatorResult, len(e.calcs))
	for i, calc := range e.calcs {
		results[i] = e.runOne(calc, h)
	}
	return results
}

func (e *Engine) runOne(calc Calculator, h *model.History) (res model.IndicatorResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[indicator] %s panicked: %v", calc.Name(), r)
			res = model.NeutralResult(calc.Name(), fmt.Sprintf("panic: %v", r))
		}
	}()

	res, err := calc.Calculate(h)
	if err != nil {
		res = model.NeutralResult(calc.Name(), err.Error())
	}
	return res
}
