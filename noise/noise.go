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

// Package noise contains the noise samplers used by the private counter.
package noise

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/checks"
	exprand "golang.org/x/exp/rand"
)

// Kind is an enum type. Its values are the supported noise samplers.
type Kind int

// Noise samplers used by the private counter.
const (
	LaplaceNoise Kind = iota
	SecureLaplaceNoise
	NoNoise
	Unrecognised
)

var kindNames = map[Kind]string{
	LaplaceNoise:       "laplace",
	SecureLaplaceNoise: "secure_laplace",
	NoNoise:            "none",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unrecognised"
}

// ParseKind converts a name such as "laplace" into a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Unrecognised, fmt.Errorf("unknown noise %q, must be one of %q, %q or %q", name, "laplace", "secure_laplace", "none")
}

// ToNoise converts a Kind into a Noise instance. The source seeds the
// LaplaceNoise sampler and is ignored by the other kinds.
func ToNoise(k Kind, src exprand.Source) Noise {
	switch k {
	case LaplaceNoise:
		return Laplace(src)
	case SecureLaplaceNoise:
		return SecureLaplace()
	case NoNoise:
		return Zero()
	case Unrecognised:
		log.Warningf("ToNoise: Unrecognised noise specified, returning nil")
	default:
		log.Warningf("ToNoise: unknown kind (%v) specified, returning nil", k)
	}
	return nil
}

// ToKind converts a Noise instance into a Kind.
func ToKind(n Noise) Kind {
	switch n.(type) {
	case *laplace:
		return LaplaceNoise
	case secureLaplace:
		return SecureLaplaceNoise
	case zero:
		return NoNoise
	case nil:
		log.Warningf("ToKind: nil noise specified, returning Unrecognised")
	default:
		log.Warningf("ToKind: unknown Noise (%v) specified, returning Unrecognised", n)
	}
	return Unrecognised
}

// Noise is an interface for samplers of zero-centred noise that make a
// released value ε-differentially private.
type Noise interface {
	// Sample returns one noise draw calibrated so that adding it to a value of
	// the given L_1 sensitivity is ε-differentially private.
	Sample(l1Sensitivity, epsilon float64) (float64, error)
}

// Scale returns the scale λ = l1Sensitivity/ε of the Laplace distribution
// that achieves ε-differential privacy.
func Scale(l1Sensitivity, epsilon float64) float64 {
	return l1Sensitivity / epsilon
}

func checkArgs(l1Sensitivity, epsilon float64) error {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return err
	}
	if l1Sensitivity < 0 || math.IsInf(l1Sensitivity, 0) || math.IsNaN(l1Sensitivity) {
		return fmt.Errorf("L1Sensitivity is %f, must be nonnegative and finite", l1Sensitivity)
	}
	return nil
}

type zero struct{}

// Zero returns a Noise instance that never adds noise. It is used to switch
// the private counter off in experiments and tests.
func Zero() Noise {
	return zero{}
}

func (zero) Sample(l1Sensitivity, epsilon float64) (float64, error) {
	if err := checkArgs(l1Sensitivity, epsilon); err != nil {
		return 0, err
	}
	return 0, nil
}

func (zero) String() string {
	return "No Noise"
}
