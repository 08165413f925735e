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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sethneel/bandits-ada/evaluate"
)

// csvHeader names the columns of the vector files: one row per vector entry.
var csvHeader = []string{"run_id", "rule", "epsilon", "series", "index", "value"}

// WriteCSV writes every vector of the results to w in long format.
func WriteCSV(w io.Writer, runID string, results ...*evaluate.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, res := range results {
		rule := res.Kind.String()
		eps := strconv.FormatFloat(res.Epsilon, 'g', -1, 64)
		for _, s := range []struct {
			name   string
			values []float64
		}{
			{"mean", res.Means},
			{"bias", res.Bias},
			{"type1_error", res.TypeIError},
			{"corrected_type1_error", res.CorrectedTypeIError},
			{"regret", res.Regret},
			{"cumulative_regret", res.CumulativeRegret},
		} {
			for i, v := range s.values {
				record := []string{runID, rule, eps, s.name, strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the results to the file at path, see WriteCSV.
func WriteCSVFile(path, runID string, results ...*evaluate.Result) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't open the csv file = %q, err = %v", path, err)
	}
	if err := WriteCSV(csvFile, runID, results...); err != nil {
		csvFile.Close()
		return fmt.Errorf("couldn't write to the csv file = %q, err = %v", path, err)
	}
	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("couldn't close the csv file = %q, err = %v", path, err)
	}
	return nil
}
