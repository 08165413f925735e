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

package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/sethneel/bandits-ada/bandit"
	"github.com/sethneel/bandits-ada/evaluate"
)

func testResults() (ucb, private *evaluate.Result) {
	ucb = &evaluate.Result{
		Kind:             bandit.UCB,
		NumSims:          4,
		Means:            []float64{0.9, 0.8},
		Bias:             []float64{-0.01, -0.03},
		Regret:           []float64{0, 0.05, 0.04},
		CumulativeRegret: []float64{0, 0.1, 0.12},
		TypeIError:       []float64{0, 0.25},
		ConfidenceWidth:  evaluate.ConfidenceWidth(4),
	}
	private = &evaluate.Result{
		Kind:                bandit.PrivateGreedy,
		Epsilon:             0.5,
		NumSims:             4,
		Means:               []float64{0.9, 0.8},
		Bias:                []float64{0.02, -0.04},
		Regret:              []float64{0, 0.05, 0.06},
		CumulativeRegret:    []float64{0, 0.1, 0.18},
		TypeIError:          []float64{0.25, 0.5},
		CorrectedTypeIError: []float64{0, 0},
		ConfidenceWidth:     evaluate.ConfidenceWidth(4),
	}
	return ucb, private
}

func TestFileNames(t *testing.T) {
	for _, tc := range []struct {
		got, want string
	}{
		{PrivateBiasFile(0.1234), "private_ucb_bias_eps_0.12.pdf"},
		{AverageRegretFile(1), "average_regret_eps_1.00.pdf"},
		{CumulativeRegretFile(0.006), "cumulative_regret_eps_0.01.pdf"},
		{CSVFile(0.25), "vectors_eps_0.25.csv"},
	} {
		if tc.got != tc.want {
			t.Errorf("got file name %q, want %q", tc.got, tc.want)
		}
	}
}

func TestMeanAbsBias(t *testing.T) {
	ucb, private := testResults()
	if got := MeanAbsBias(ucb); math.Abs(got-0.02) > 1e-12 {
		t.Errorf("MeanAbsBias(ucb) = %f, want 0.02", got)
	}
	if got := MeanAbsBias(private); math.Abs(got-0.03) > 1e-12 {
		t.Errorf("MeanAbsBias(private) = %f, want 0.03", got)
	}
	if got := MeanAbsBias(&evaluate.Result{}); got != 0 {
		t.Errorf("MeanAbsBias of an empty result = %f, want 0", got)
	}
}

func TestSummaryLines(t *testing.T) {
	ucb, private := testResults()
	ucbLines := SummaryLines(ucb)
	if !strings.HasPrefix(ucbLines[0], "non-private bias") {
		t.Errorf("first UCB summary line = %q, want the non-private bias", ucbLines[0])
	}
	for _, l := range ucbLines {
		if strings.Contains(l, "corrected") {
			t.Errorf("UCB summary without corrected errors contains %q", l)
		}
	}
	privateLines := strings.Join(SummaryLines(private), "\n")
	for _, want := range []string{"privgreed (ε=0.5) bias", "(corrected)", "regret at T=3"} {
		if !strings.Contains(privateLines, want) {
			t.Errorf("private summary %q does not contain %q", privateLines, want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	ucb, private := testResults()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "run", ucb, private); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back the CSV: %v", err)
	}
	if diff := cmp.Diff(csvHeader, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	// UCB: 2 means, 2 biases, 2 errors, 3+3 regrets. Private adds 2 corrected errors.
	if got, want := len(records)-1, 12+14; got != want {
		t.Errorf("got %d rows, want %d", got, want)
	}
	want := []string{"run", "privgreed", "0.5", "cumulative_regret", "2", "0.18"}
	if diff := cmp.Diff(want, records[len(records)-1]); diff != "" {
		t.Errorf("last row mismatch (-want +got):\n%s", diff)
	}
}

func TestReporterWrite(t *testing.T) {
	ucb, private := testResults()
	dir := filepath.Join(t.TempDir(), "out")
	r := New(&Options{Dir: dir, Plots: true, CSV: true, RunID: "test-run"})
	written, err := r.Write(ucb, private)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []string{
		filepath.Join(dir, "ucb_bias.pdf"),
		filepath.Join(dir, "private_ucb_bias_eps_0.50.pdf"),
		filepath.Join(dir, "average_regret_eps_0.50.pdf"),
		filepath.Join(dir, "cumulative_regret_eps_0.50.pdf"),
		filepath.Join(dir, "vectors_eps_0.50.csv"),
	}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Errorf("written files mismatch (-want +got):\n%s", diff)
	}
	for _, path := range written {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("Stat(%q): %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%q is empty", path)
		}
	}
}

func TestReporterWithoutOutputs(t *testing.T) {
	ucb, private := testResults()
	r := New(nil)
	if _, err := uuid.Parse(r.RunID()); err != nil {
		t.Errorf("default run id %q is not a UUID: %v", r.RunID(), err)
	}
	written, err := r.Write(ucb, private)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(written) != 0 {
		t.Errorf("Write without plots or CSV wrote %v", written)
	}
}
