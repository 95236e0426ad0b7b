package server

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// deterministicSeedValue hashes a root seed and label into a non-zero source
// seed so distinct sessions draw from distinct but reproducible streams.
func deterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// newSessionRNG derives the per-session random source. An empty root seed
// falls back to wall-clock seeding.
func newSessionRNG(rootSeed, sessionID string) *rand.Rand {
	if rootSeed == "" {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, sessionID)))
}
