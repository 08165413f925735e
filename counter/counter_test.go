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

package counter

import (
	"math"
	"math/bits"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/grd/stat"
	"github.com/sethneel/bandits-ada/noise"
	"github.com/sethneel/bandits-ada/rand"
)

// sequenceNoise returns 1, 2, 3, ... on successive draws and records the
// arguments it was called with.
type sequenceNoise struct {
	next          float64
	sensitivities []float64
	epsilons      []float64
}

func (s *sequenceNoise) Sample(l1Sensitivity, epsilon float64) (float64, error) {
	s.next++
	s.sensitivities = append(s.sensitivities, l1Sensitivity)
	s.epsilons = append(s.epsilons, epsilon)
	return s.next, nil
}

var tenten = math.Pow10(-10)

func approxEqual(x, y float64) bool {
	return cmp.Equal(x, y, cmpopts.EquateApprox(0, tenten))
}

func TestLowestSetBit(t *testing.T) {
	for _, tc := range []struct {
		binary string
		want   int
	}{
		{"0100", 2},
		{"1", 0},
		{"10", 1},
		{"11", 0},
		{"1000", 3},
		{"101000", 3},
		{"0000", -1},
		{"", -1},
	} {
		if got := LowestSetBit(tc.binary); got != tc.want {
			t.Errorf("LowestSetBit(%q) = %d, want %d", tc.binary, got, tc.want)
		}
	}
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct{ horizon, want int }{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{1000, 10},
		{1024, 11},
	} {
		if got := Levels(tc.horizon); got != tc.want {
			t.Errorf("Levels(%d) = %d, want %d", tc.horizon, got, tc.want)
		}
	}
}

func TestLevelEpsilon(t *testing.T) {
	for _, tc := range []struct {
		epsilon float64
		horizon int
		want    float64
	}{
		{1, 2, 1},
		{1, 4, 0.5},
		{1, 5, 1 / math.Log2(5)},
		{2, 1024, 0.2},
		{1, 100000, 1 / math.Log2(100000)},
		{1, 1, math.Inf(1)},
	} {
		bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: tc.epsilon, Horizon: tc.horizon, Sensitivity: 1})
		if err != nil {
			t.Fatalf("NewBinaryMechanism(ε=%f, T=%d): %v", tc.epsilon, tc.horizon, err)
		}
		if got := bm.LevelEpsilon(); !cmp.Equal(got, tc.want, cmpopts.EquateApprox(0, tenten)) {
			t.Errorf("LevelEpsilon() with ε=%f, T=%d = %f, want %f", tc.epsilon, tc.horizon, got, tc.want)
		}
		if got := LevelEpsilon(tc.epsilon, tc.horizon); !cmp.Equal(got, tc.want, cmpopts.EquateApprox(0, tenten)) {
			t.Errorf("LevelEpsilon(%f, %d) = %f, want %f", tc.epsilon, tc.horizon, got, tc.want)
		}
	}
}

func TestSingleStepStreamIsNotNoised(t *testing.T) {
	seq := &sequenceNoise{}
	bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: 1, Horizon: 1, Sensitivity: 1, Noise: seq})
	if err != nil {
		t.Fatalf("NewBinaryMechanism: %v", err)
	}
	got, err := bm.Add(3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got != 3 || bm.Noise() != 0 {
		t.Errorf("Add(3) = %f with noise %f, want 3 with noise 0", got, bm.Noise())
	}
	if bm.Draws() != 0 || len(seq.epsilons) != 0 {
		t.Errorf("got %d draws, want none", bm.Draws())
	}

	table, err := GenerateNoiseTable(&NoiseTableOptions{Arms: 2, Horizon: 1, Epsilon: 1, Sensitivity: 2, Noise: seq})
	if err != nil {
		t.Fatalf("GenerateNoiseTable: %v", err)
	}
	for arm := 0; arm < 2; arm++ {
		if c := table.Correction(arm, 1); c != 0 {
			t.Errorf("Correction(%d, 1) = %f, want 0", arm, c)
		}
	}
}

func TestNoiseTableIsDividedByPosition(t *testing.T) {
	seq := &sequenceNoise{}
	table, err := GenerateNoiseTable(&NoiseTableOptions{Arms: 1, Horizon: 4, Epsilon: 1.0, Sensitivity: 1, Noise: seq})
	if err != nil {
		t.Fatalf("GenerateNoiseTable: %v", err)
	}
	// Level noises: j=1 draws 1 at level 0; j=2 draws 2 at level 1 and resets
	// level 0; j=3 draws 3 at level 0; j=4 draws 4 at level 2 and resets the rest.
	// Releases are 1, 2, 3+2 and 4, divided by j.
	want := []float64{1, 1, 5.0 / 3.0, 1}
	if diff := cmp.Diff(want, table.Row(0), cmpopts.EquateApprox(0, tenten)); diff != "" {
		t.Errorf("GenerateNoiseTable row mismatch (-want +got):\n%s", diff)
	}
	if got := len(table.Row(0)); got != 4 {
		t.Errorf("row length = %d, want 4", got)
	}
	for i, eps := range seq.epsilons {
		if !approxEqual(eps, 0.5) {
			t.Errorf("draw %d used epsilon %f, want 0.5 (ε/log2(4))", i, eps)
		}
		if seq.sensitivities[i] != 1 {
			t.Errorf("draw %d used sensitivity %f, want 1", i, seq.sensitivities[i])
		}
	}
}

func TestNoiseTableCorrectionIndexing(t *testing.T) {
	table, err := GenerateNoiseTable(&NoiseTableOptions{Arms: 2, Horizon: 4, Epsilon: 1.0, Sensitivity: 1, Noise: &sequenceNoise{}})
	if err != nil {
		t.Fatalf("GenerateNoiseTable: %v", err)
	}
	// The second arm continues the shared sequence at 5: releases 5, 6, 7+6, 8.
	for _, tc := range []struct {
		arm, pulls int
		want       float64
	}{
		{0, 1, 1},
		{0, 3, 5.0 / 3.0},
		{1, 1, 5},
		{1, 2, 3},
		{1, 3, 13.0 / 3.0},
		{1, 4, 2},
	} {
		if got := table.Correction(tc.arm, tc.pulls); !approxEqual(got, tc.want) {
			t.Errorf("Correction(%d, %d) = %f, want %f", tc.arm, tc.pulls, got, tc.want)
		}
	}
	if table.Arms() != 2 || table.Horizon() != 4 {
		t.Errorf("table is %dx%d, want 2x4", table.Arms(), table.Horizon())
	}
}

func TestNoiseTableWithoutNoiseIsZero(t *testing.T) {
	for _, tc := range []struct {
		desc        string
		sensitivity float64
		n           noise.Noise
	}{
		{"zero sensitivity", 0, noise.Laplace(rand.NewSource(3))},
		{"zero noise", 2, noise.Zero()},
	} {
		table, err := GenerateNoiseTable(&NoiseTableOptions{Arms: 3, Horizon: 50, Epsilon: 0.5, Sensitivity: tc.sensitivity, Noise: tc.n})
		if err != nil {
			t.Fatalf("%s: GenerateNoiseTable: %v", tc.desc, err)
		}
		zero := ZeroNoiseTable(3, 50)
		for arm := 0; arm < 3; arm++ {
			if diff := cmp.Diff(zero.Row(arm), table.Row(arm)); diff != "" {
				t.Errorf("%s: arm %d not all zero (-want +got):\n%s", tc.desc, arm, diff)
			}
		}
	}
}

func TestNoiseTableIsReproducibleFromSeed(t *testing.T) {
	gen := func() *NoiseTable {
		table, err := GenerateNoiseTable(&NoiseTableOptions{Arms: 2, Horizon: 64, Epsilon: 1, Sensitivity: 2, Noise: noise.Laplace(rand.NewSource(11))})
		if err != nil {
			t.Fatalf("GenerateNoiseTable: %v", err)
		}
		return table
	}
	a, b := gen(), gen()
	for arm := 0; arm < 2; arm++ {
		if diff := cmp.Diff(a.Row(arm), b.Row(arm)); diff != "" {
			t.Errorf("arm %d differs between equally seeded tables (-a +b):\n%s", arm, diff)
		}
	}
}

func TestGenerateNoiseTableRejectsInvalidOptions(t *testing.T) {
	for _, tc := range []struct {
		desc string
		opt  *NoiseTableOptions
	}{
		{"nil options", nil},
		{"zero arms", &NoiseTableOptions{Arms: 0, Horizon: 4, Epsilon: 1, Sensitivity: 1}},
		{"zero horizon", &NoiseTableOptions{Arms: 1, Horizon: 0, Epsilon: 1, Sensitivity: 1}},
		{"zero epsilon", &NoiseTableOptions{Arms: 1, Horizon: 4, Epsilon: 0, Sensitivity: 1}},
		{"infinite epsilon", &NoiseTableOptions{Arms: 1, Horizon: 4, Epsilon: math.Inf(1), Sensitivity: 1}},
		{"negative sensitivity", &NoiseTableOptions{Arms: 1, Horizon: 4, Epsilon: 1, Sensitivity: -1}},
	} {
		if _, err := GenerateNoiseTable(tc.opt); err == nil {
			t.Errorf("GenerateNoiseTable with %s: got nil error, want error", tc.desc)
		}
	}
}

func TestBinaryMechanismActiveLevelsAreLogarithmic(t *testing.T) {
	const horizon = 1000
	bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: 1, Horizon: horizon, Sensitivity: 1, Noise: noise.Laplace(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("NewBinaryMechanism: %v", err)
	}
	levels := bm.Levels()
	if levels != 10 {
		t.Fatalf("Levels() = %d, want 10", levels)
	}
	for j := 1; j <= horizon; j++ {
		if _, err := bm.Add(1); err != nil {
			t.Fatalf("Add at step %d: %v", j, err)
		}
		if bm.Step() != j {
			t.Errorf("Step() = %d, want %d", bm.Step(), j)
		}
		if got := bm.ActiveLevels(); got > levels {
			t.Errorf("step %d sums %d level noises, want at most %d", j, got, levels)
		}
		if got, want := bm.ActiveLevels(), bits.OnesCount(uint(j)); got != want {
			t.Errorf("step %d: ActiveLevels() = %d, want %d", j, got, want)
		}
	}
	if bm.Draws() != horizon {
		t.Errorf("Draws() = %d, want %d", bm.Draws(), horizon)
	}
	if _, err := bm.Add(1); err == nil {
		t.Errorf("Add past the horizon: got nil error, want error")
	}
}

func TestBinaryMechanismWithoutNoiseCountsExactly(t *testing.T) {
	bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: 1, Horizon: 100, Sensitivity: 1, Noise: noise.Zero()})
	if err != nil {
		t.Fatalf("NewBinaryMechanism: %v", err)
	}
	var exact float64
	for j := 1; j <= 100; j++ {
		x := float64(j % 3 % 2) // 1, 0, 0, 1, 0, 0, ...
		exact += x
		got, err := bm.Add(x)
		if err != nil {
			t.Fatalf("Add at step %d: %v", j, err)
		}
		if !approxEqual(got, exact) {
			t.Errorf("step %d: running sum %f, want %f", j, got, exact)
		}
		if bm.Noise() != 0 {
			t.Errorf("step %d: Noise() = %f, want 0", j, bm.Noise())
		}
	}
}

func TestBinaryMechanismNoiseMatchesRelease(t *testing.T) {
	bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: 0.5, Horizon: 64, Sensitivity: 2, Noise: noise.Laplace(rand.NewSource(8))})
	if err != nil {
		t.Fatalf("NewBinaryMechanism: %v", err)
	}
	var exact float64
	for j := 1; j <= 64; j++ {
		exact++
		got, err := bm.Add(1)
		if err != nil {
			t.Fatalf("Add at step %d: %v", j, err)
		}
		if !approxEqual(got-exact, bm.Noise()) {
			t.Errorf("step %d: release - exact = %f, Noise() = %f", j, got-exact, bm.Noise())
		}
	}
	if !approxEqual(bm.LevelEpsilon(), 0.5/6) {
		t.Errorf("LevelEpsilon() = %f, want %f", bm.LevelEpsilon(), 0.5/6)
	}
}

func TestBinaryMechanismReleaseVariance(t *testing.T) {
	// The release at step 7 = 0b111 sums three independent level noises of
	// scale λ = sensitivity/(ε/log2(T)), so its variance is 3·2λ².
	const (
		numberOfSamples = 20000
		horizon         = 7
		epsilon         = 1.0
		sensitivity     = 1.0
	)
	src := rand.NewSource(17)
	releases := make(stat.Float64Slice, numberOfSamples)
	for i := range releases {
		bm, err := NewBinaryMechanism(&MechanismOptions{Epsilon: epsilon, Horizon: horizon, Sensitivity: sensitivity, Noise: noise.Laplace(src)})
		if err != nil {
			t.Fatalf("NewBinaryMechanism: %v", err)
		}
		for j := 0; j < horizon; j++ {
			if _, err := bm.Add(0); err != nil {
				t.Fatalf("Add: %v", err)
			}
		}
		releases[i] = bm.Noise()
	}
	lambda := sensitivity / (epsilon / math.Log2(horizon))
	wantVariance := 3 * 2 * lambda * lambda
	// Tolerance at the 99.9995% quantile of the sample variance, using the
	// kurtosis of a sum of three Laplace variables (excess kurtosis 1).
	tolerance := 4.41717 * math.Sqrt(3.0) * wantVariance / math.Sqrt(numberOfSamples)
	if got := stat.Variance(releases); math.Abs(got-wantVariance) > tolerance {
		t.Errorf("release variance = %f, want %f ± %f", got, wantVariance, tolerance)
	}
}
