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
	"strconv"

	"github.com/sethneel/bandits-ada/evaluate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// UCBBiasFile is the name of the bias chart of the UCB evaluation.
const UCBBiasFile = "ucb_bias.pdf"

// epsilonLabel formats ε rounded to two decimals, e.g. "0.10".
func epsilonLabel(epsilon float64) string {
	return strconv.FormatFloat(epsilon, 'f', 2, 64)
}

// PrivateBiasFile returns the name of the bias chart of a private evaluation.
func PrivateBiasFile(epsilon float64) string {
	return fmt.Sprintf("private_ucb_bias_eps_%s.pdf", epsilonLabel(epsilon))
}

// AverageRegretFile returns the name of the average regret chart.
func AverageRegretFile(epsilon float64) string {
	return fmt.Sprintf("average_regret_eps_%s.pdf", epsilonLabel(epsilon))
}

// CumulativeRegretFile returns the name of the cumulative regret chart.
func CumulativeRegretFile(epsilon float64) string {
	return fmt.Sprintf("cumulative_regret_eps_%s.pdf", epsilonLabel(epsilon))
}

// biasPoints are the bar tops of a bias chart with their error bars.
type biasPoints struct {
	plotter.XYs
	plotter.YErrors
}

// drawBias saves a bar chart of the bias of every arm, labelled by the arm's
// mean, with error bars of the confidence width.
func drawBias(res *evaluate.Result, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "arm mean"
	p.Y.Label.Text = "bias"

	bars, err := plotter.NewBarChart(plotter.Values(res.Bias), vg.Points(30))
	if err != nil {
		return fmt.Errorf("could not create bars from bias %v: %v", res.Bias, err)
	}
	bars.Color = plotutil.Color(1)
	p.Add(bars)

	pts := biasPoints{
		XYs:     make(plotter.XYs, len(res.Bias)),
		YErrors: make(plotter.YErrors, len(res.Bias)),
	}
	for i, b := range res.Bias {
		pts.XYs[i].X = float64(i)
		pts.XYs[i].Y = b
		pts.YErrors[i].Low = res.ConfidenceWidth
		pts.YErrors[i].High = res.ConfidenceWidth
	}
	errBars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return fmt.Errorf("could not create error bars: %v", err)
	}
	errBars.CapWidth = vg.Points(14)
	p.Add(errBars)

	labels := make([]string, len(res.Means))
	for i, mu := range res.Means {
		labels[i] = strconv.FormatFloat(mu, 'f', 2, 64)
	}
	p.NominalX(labels...)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("could not save plot %q: %v", path, err)
	}
	return nil
}

// drawRegret saves the non-private and private regret curves on one chart.
func drawRegret(nonPrivate, private []float64, title, yLabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "T"
	p.Y.Label.Text = yLabel

	for i, c := range []struct {
		name   string
		values []float64
	}{
		{"nonpriv", nonPrivate},
		{"private", private},
	} {
		xys := make(plotter.XYs, len(c.values))
		for t, v := range c.values {
			xys[t].X = float64(t + 1)
			xys[t].Y = v
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("could not create the %s line: %v", c.name, err)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(c.name, l)
	}
	p.Legend.Top = true

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("could not save plot %q: %v", path, err)
	}
	return nil
}
