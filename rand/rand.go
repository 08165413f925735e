//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package rand provides the randomness used by the simulations: seeded
// sources that make every trial reproducible and independent, and a
// cryptographically secure stream for the secure noise mechanism.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	log "github.com/golang/glog"
	exprand "golang.org/x/exp/rand"
)

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)

	randBitLock sync.Mutex
	randBitBuf  uint8
	randBitPos  int8 = math.MaxInt8
)

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// U64 returns a uniformly random uint64.
func U64() uint64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// U8 returns a uniformly random uint8.
func U8() uint8 {
	var r [1]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return r[0]
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func Sign() float64 {
	if Boolean() {
		return 1.0
	}
	return -1.0
}

// Boolean returns true or false with equal probability.
func Boolean() bool {
	randBitLock.Lock()
	defer randBitLock.Unlock()
	if randBitPos > 7 { // Out of random bits.
		randBitBuf = U8()
		randBitPos = 0
	}
	res := randBitBuf&(1<<randBitPos) > 0
	randBitPos++
	return res
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func Uniform() float64 {
	i := U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, Geometric())
	// We want to avoid returning 0, since we're taking the log of the output.
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}

// NewSource returns a seeded pseudo-random source. A seed of 0 is replaced by
// a seed drawn from the secure stream, so the source is then not reproducible.
//
// The returned source is not safe for concurrent use; give every goroutine its
// own.
func NewSource(seed uint64) exprand.Source {
	if seed == 0 {
		seed = U64()
	}
	return exprand.NewSource(seed)
}

// Seeder hands out a deterministic sequence of seeds derived from one root
// seed. Seeds are drawn in call order, so the i-th seed only depends on the
// root seed and i.
//
// Not thread-safe.
type Seeder struct {
	rnd  *exprand.Rand
	root uint64
}

// NewSeeder returns a Seeder for the given root seed. A root seed of 0 is
// replaced by a seed drawn from the secure stream.
func NewSeeder(root uint64) *Seeder {
	if root == 0 {
		root = U64()
		log.V(1).Infof("rand: drew root seed %d", root)
	}
	return &Seeder{rnd: exprand.New(exprand.NewSource(root)), root: root}
}

// Root returns the root seed, which reproduces the whole sequence.
func (s *Seeder) Root() uint64 {
	return s.root
}

// Next returns the next nonzero seed.
func (s *Seeder) Next() uint64 {
	for {
		if seed := s.rnd.Uint64(); seed != 0 {
			return seed
		}
	}
}
