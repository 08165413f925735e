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

// Package config reads the parameters of bandit experiments from positional
// command-line arguments or from YAML sweep files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sethneel/bandits-ada/bandit"
	"github.com/sethneel/bandits-ada/checks"
	"gopkg.in/yaml.v3"
)

// Usage lists the positional arguments in the order ParseArgs expects them.
const Usage = "T K n_sims delta epsilon gap alpha keyword"

// NumArgs is the number of positional arguments.
const NumArgs = 8

// Config holds the parameters of one experiment: a UCB evaluation followed by
// the evaluation of the private rule named by Keyword.
type Config struct {
	Horizon int `yaml:"T"`
	Arms    int `yaml:"K"`
	NumSims int `yaml:"n_sims"`
	// Delta is not used by the runs, which use the schedule δ_t = 1/(1 + t·ln²t).
	// It is still held to (0, 1) like any confidence parameter so that a
	// mistyped argument, such as epsilon and delta swapped, fails early.
	Delta   float64 `yaml:"delta"`
	Epsilon float64 `yaml:"epsilon"`
	Gap     float64 `yaml:"gap"`
	Alpha   float64 `yaml:"alpha"`
	Keyword string  `yaml:"keyword"`

	// Kind is the private rule named by Keyword, set by Validate.
	Kind bandit.SelectorKind `yaml:"-"`
}

// ParseArgs parses the positional arguments listed in Usage into a validated
// Config.
func ParseArgs(args []string) (*Config, error) {
	if len(args) != NumArgs {
		return nil, fmt.Errorf("got %d positional arguments, want %d: %s", len(args), NumArgs, Usage)
	}
	c := &Config{Keyword: args[7]}
	ints := []struct {
		name string
		dst  *int
		arg  string
	}{
		{"T", &c.Horizon, args[0]},
		{"K", &c.Arms, args[1]},
		{"n_sims", &c.NumSims, args[2]},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(i.arg)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %s: %w", i.name, err)
		}
		*i.dst = v
	}
	floats := []struct {
		name string
		dst  *float64
		arg  string
	}{
		{"delta", &c.Delta, args[3]},
		{"epsilon", &c.Epsilon, args[4]},
		{"gap", &c.Gap, args[5]},
		{"alpha", &c.Alpha, args[6]},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(f.arg, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %s: %w", f.name, err)
		}
		*f.dst = v
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the parameters and sets Kind.
func (c *Config) Validate() error {
	if err := checks.CheckArms(c.Arms); err != nil {
		return err
	}
	if err := checks.CheckHorizon(c.Horizon, c.Arms); err != nil {
		return err
	}
	if err := checks.CheckNumSims(c.NumSims); err != nil {
		return err
	}
	if err := checks.CheckDeltaStrict(c.Delta); err != nil {
		return err
	}
	if err := checks.CheckEpsilonStrict(c.Epsilon); err != nil {
		return err
	}
	if err := checks.CheckGap(c.Gap, c.Arms); err != nil {
		return err
	}
	if err := checks.CheckAlpha(c.Alpha); err != nil {
		return err
	}
	kind, err := bandit.ParseSelectorKind(c.Keyword)
	if err != nil {
		return err
	}
	if !kind.Private() {
		return fmt.Errorf("keyword %q names a non-private rule, must be %q or %q", c.Keyword, bandit.PrivateUCBKeyword, bandit.PrivateGreedyKeyword)
	}
	c.Kind = kind
	return nil
}

// Sweep is the content of a sweep file.
type Sweep struct {
	Experiments []*Config `yaml:"experiments"`
}

// ParseSweep parses and validates the experiments of a YAML sweep file, e.g.
//
//	experiments:
//	  - {T: 5000, K: 5, n_sims: 50, delta: 0.95, epsilon: 0.1, gap: 0.1, alpha: 0.1, keyword: privgreed}
func ParseSweep(data []byte) ([]*Config, error) {
	var s Sweep
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling sweep: %w", err)
	}
	if len(s.Experiments) == 0 {
		return nil, fmt.Errorf("sweep lists no experiments")
	}
	for i, c := range s.Experiments {
		if c == nil {
			return nil, fmt.Errorf("experiment %d is empty", i)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("experiment %d: %w", i, err)
		}
	}
	return s.Experiments, nil
}

// LoadSweep reads and parses the sweep file at path.
func LoadSweep(path string) ([]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}
	return ParseSweep(data)
}
