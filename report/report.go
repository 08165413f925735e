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

// Package report writes the outcome of an experiment: summary log lines,
// charts and CSV vectors.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/sethneel/bandits-ada/evaluate"
)

// Options contains the options of a Reporter.
type Options struct {
	Dir   string // Output directory, created if missing. Defaults to the working directory.
	Plots bool   // Draw the bias and regret charts.
	CSV   bool   // Write the result vectors to a CSV file.
	// RunID identifies the experiment in logs and CSV rows. Defaults to a random UUID.
	RunID string
}

// Reporter writes the outputs of experiments.
type Reporter struct {
	dir   string
	plots bool
	csv   bool
	runID string
}

// New returns a Reporter.
func New(opt *Options) *Reporter {
	if opt == nil {
		opt = &Options{}
	}
	r := &Reporter{dir: opt.Dir, plots: opt.Plots, csv: opt.CSV, runID: opt.RunID}
	if r.dir == "" {
		r.dir = "."
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// RunID returns the id of the experiment.
func (r *Reporter) RunID() string {
	return r.runID
}

// CSVFile returns the name of the vector file of a private evaluation.
func CSVFile(epsilon float64) string {
	return fmt.Sprintf("vectors_eps_%s.csv", epsilonLabel(epsilon))
}

// Write reports a UCB evaluation next to the evaluation of a private rule with
// the same parameters. It returns the paths of the files written.
func (r *Reporter) Write(ucb, private *evaluate.Result) ([]string, error) {
	LogSummary(r.runID, ucb)
	LogSummary(r.runID, private)
	if !r.plots && !r.csv {
		return nil, nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("couldn't create the output directory %q: %v", r.dir, err)
	}

	var written []string
	eps := private.Epsilon
	if r.plots {
		charts := []struct {
			file string
			draw func(path string) error
		}{
			{UCBBiasFile, func(path string) error {
				return drawBias(ucb, "UCB bias per arm", path)
			}},
			{PrivateBiasFile(eps), func(path string) error {
				return drawBias(private, fmt.Sprintf("%v bias per arm: epsilon = %g", private.Kind, eps), path)
			}},
			{AverageRegretFile(eps), func(path string) error {
				return drawRegret(ucb.Regret, private.Regret,
					fmt.Sprintf("average cumulative regret: UCB vs. %s-private %v", epsilonLabel(eps), private.Kind),
					"average cumulative regret", path)
			}},
			{CumulativeRegretFile(eps), func(path string) error {
				return drawRegret(ucb.CumulativeRegret, private.CumulativeRegret,
					fmt.Sprintf("total cumulative regret: UCB vs. %s-private %v", epsilonLabel(eps), private.Kind),
					"total cumulative regret", path)
			}},
		}
		for _, c := range charts {
			path := filepath.Join(r.dir, c.file)
			if err := c.draw(path); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	if r.csv {
		path := filepath.Join(r.dir, CSVFile(eps))
		if err := WriteCSVFile(path, r.runID, ucb, private); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	log.Infof("[%s] wrote %d files to %s", r.runID, len(written), r.dir)
	return written, nil
}
