// Package random provides the game's single source of randomness.
// All probabilistic mechanics (catch rolls, damage variance, spawn levels)
// draw from here so tests can queue deterministic results.
package random

import (
	"crypto/rand"
	"math/big"
)

var mockQueue []int

// Mock prepares a sequence of deterministic results for the next calls to Int.
func Mock(results []int) {
	mockQueue = results
}

// ResetMock clears the deterministic queue.
func ResetMock() {
	mockQueue = nil
}

// Int returns a uniform integer in [min, max]. Arguments outside a sane
// range collapse to min, mirroring how the game treats degenerate odds
// (a 1..1 roll always "fails" a catch, a 1..n roll with n>1 may pass).
func Int(min, max int) int {
	if len(mockQueue) > 0 {
		v := mockQueue[0]
		mockQueue = mockQueue[1:]
		return v
	}
	if max <= min {
		return min
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	return min + int(n.Int64())
}

// Float returns a uniform float64 in [min, max]. Mocked queues feed Float
// as percentages: a queued value v is interpreted as min + (max-min)*v/100.
func Float(min, max float64) float64 {
	if len(mockQueue) > 0 {
		v := mockQueue[0]
		mockQueue = mockQueue[1:]
		return min + (max-min)*float64(v)/100
	}
	const resolution = 1 << 30
	n, _ := rand.Int(rand.Reader, big.NewInt(resolution))
	return min + (max-min)*float64(n.Int64())/float64(resolution-1)
}
