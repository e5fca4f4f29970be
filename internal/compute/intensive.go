package compute

import (
	"context"
	"math"
)

// intensiveRounds is how many times a unit repeats its inner loop
const intensiveRounds = 1000

// IntensiveCalc burns CPU proportional to n and discards the result.
func IntensiveCalc(ctx context.Context, n int) error {
	_ = Intensive(n)
	return ctx.Err()
}

// Intensive returns sum over i in [0, n) of sqrt(i) repeated a fixed number of rounds
func Intensive(n int) float64 {
	var acc float64
	for round := 0; round < intensiveRounds; round++ {
		for i := 0; i < n; i++ {
			acc += math.Sqrt(float64(i))
		}
	}
	return acc / intensiveRounds
}
