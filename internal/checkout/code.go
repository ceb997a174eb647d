package checkout

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const codeRandomRange = 1000

// CodeGenerator produces transaction codes of the form TRX-<unix millis>-<0..999>.
type CodeGenerator struct {
	Now  func() time.Time
	Intn func(n int) int
}

// NewCodeGenerator returns a generator using the wall clock and math/rand.
func NewCodeGenerator() CodeGenerator {
	return CodeGenerator{Now: time.Now, Intn: rand.IntN}
}

// Next returns a fresh code.
func (g CodeGenerator) Next() string {
	now, intn := g.Now, g.Intn
	if now == nil {
		now = time.Now
	}
	if intn == nil {
		intn = rand.IntN
	}
	return fmt.Sprintf("TRX-%d-%d", now().UnixMilli(), intn(codeRandomRange))
}
