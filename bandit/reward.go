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

package bandit

import (
	"github.com/sethneel/bandits-ada/rand"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RewardSource draws Bernoulli rewards from a seeded source.
//
// Not thread-safe.
type RewardSource struct {
	src exprand.Source
}

// NewRewardSource returns a RewardSource drawing from src. A nil source is
// replaced by a freshly seeded one.
func NewRewardSource(src exprand.Source) *RewardSource {
	if src == nil {
		src = rand.NewSource(0)
	}
	return &RewardSource{src: src}
}

// Sample returns 1 with probability mu and 0 otherwise.
func (r *RewardSource) Sample(mu float64) float64 {
	return distuv.Bernoulli{P: mu, Src: r.src}.Rand()
}
