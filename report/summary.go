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
	"fmt"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/evaluate"
	"gonum.org/v1/gonum/floats"
)

// MeanAbsBias returns the mean over arms of the absolute bias.
func MeanAbsBias(res *evaluate.Result) float64 {
	if len(res.Bias) == 0 {
		return 0
	}
	return floats.Norm(res.Bias, 1) / float64(len(res.Bias))
}

// SummaryLines returns the human readable summary of a result.
func SummaryLines(res *evaluate.Result) []string {
	label := "non-private"
	if res.Kind.Private() {
		label = fmt.Sprintf("%v (ε=%g)", res.Kind, res.Epsilon)
	}
	lines := []string{
		fmt.Sprintf("%s bias: %v", label, res.Bias),
		fmt.Sprintf("mean of %s |bias|: %g", label, MeanAbsBias(res)),
		fmt.Sprintf("confidence width for bias: %g", res.ConfidenceWidth),
		fmt.Sprintf("average type 1 errors %s: %v", label, res.TypeIError),
	}
	if res.CorrectedTypeIError != nil {
		lines = append(lines, fmt.Sprintf("average type 1 errors %s (corrected): %v", label, res.CorrectedTypeIError))
	}
	if n := len(res.Regret); n > 0 {
		lines = append(lines, fmt.Sprintf("%s regret at T=%d: average %g, cumulative %g", label, n, res.Regret[n-1], res.CumulativeRegret[n-1]))
	}
	return lines
}

// LogSummary logs the summary of a result under the run id.
func LogSummary(runID string, res *evaluate.Result) {
	for _, l := range SummaryLines(res) {
		log.Infof("[%s] %s", runID, l)
	}
}
