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

// This is a command line utility which simulates UCB and a differentially
// private variant on Bernoulli arms, and reports the bias of the arm means,
// the type-1 errors of binomial tests and the pseudo-regret.
// Usage example:
// banditsim --output_dir=/tmp/out --seed=7 5000 5 50 .95 .1 .1 .1 privgreed
// banditsim --sweep_file=sweep.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/config"
	"github.com/sethneel/bandits-ada/noise"
)

var (
	outputDir   = flag.String("output_dir", ".", "Directory for the charts and CSV files.")
	seed        = flag.Uint64("seed", 0, "Root seed of the simulations. 0 picks a random seed, which is logged.")
	parallelism = flag.Int("parallelism", 1, "Number of trials simulated at once.")
	noiseName   = flag.String("noise", noise.LaplaceNoise.String(), "Counter noise: laplace, secure_laplace or none.")
	plots       = flag.Bool("plots", true, "Draw the bias and regret charts.")
	writeCSV    = flag.Bool("csv", false, "Write the result vectors to a CSV file.")
	sweepFile   = flag.String("sweep_file", "", "YAML file listing experiments. Replaces the positional arguments.")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] %s\n", os.Args[0], config.Usage)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	var cfgs []*config.Config
	if *sweepFile != "" {
		if flag.NArg() != 0 {
			log.Exitf("Positional arguments %v cannot be combined with --sweep_file", flag.Args())
		}
		var err error
		cfgs, err = config.LoadSweep(*sweepFile)
		if err != nil {
			log.Exitf("Couldn't load the sweep file %q, err = %v", *sweepFile, err)
		}
	} else {
		cfg, err := config.ParseArgs(flag.Args())
		if err != nil {
			usage()
			log.Exitf("Invalid arguments, err = %v", err)
		}
		cfgs = []*config.Config{cfg}
	}

	kind, err := noise.ParseKind(*noiseName)
	if err != nil {
		log.Exitf("Invalid --noise, err = %v", err)
	}
	s := settings{
		outputDir:   *outputDir,
		seed:        *seed,
		parallelism: *parallelism,
		noise:       kind,
		plots:       *plots,
		csv:         *writeCSV,
	}

	ctx := context.Background()
	for i, cfg := range cfgs {
		if _, _, err := runExperiment(ctx, cfg, s); err != nil {
			log.Exitf("Experiment %d failed, err = %v", i, err)
		}
	}
	log.Infof("Successfully finished %d experiments", len(cfgs))
}
