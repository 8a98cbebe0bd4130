/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/weakform/InputParameters"
	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/multiharmonic"
	"github.com/notargets/weakform/operation"
	"github.com/notargets/weakform/selector"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

type EvalOptions struct {
	TimeEvals int // time samples per period, 0 prints harmonics
	BatchSize int
	Workers   int
	Simplify  bool
	Metrics   bool // print the evaluation counters at the end
}

// EvalCmd represents the eval command
var EvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluates the expression of a problem file at the quadrature points",
	Long: `
Reads the mesh, parameters, fields and the reverse polish expression of a YAML
problem file and prints the value of the expression at the quadrature points
of each region, per harmonic or as time samples over one period.

weakform eval -I problem.yaml --time 16`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip   *InputParameters.InputParameters
			opts = EvalOptions{
				TimeEvals: viper.GetInt("time"),
				BatchSize: viper.GetInt("batchSize"),
				Workers:   viper.GetInt("workers"),
				Simplify:  viper.GetBool("simplify"),
				Metrics:   viper.GetBool("metrics"),
			}
		)
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		if ip, err = processInput(fileName); err != nil {
			return
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			ip.Print()
		}
		return RunEval(cmd.OutOrStdout(), ip, opts)
	},
}

func init() {
	rootCmd.AddCommand(EvalCmd)
	EvalCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML problem file: nodes, regions, parameters, fields and expression")
	EvalCmd.Flags().IntP("time", "t", 0, "number of time samples per period, harmonics are printed when 0")
	EvalCmd.Flags().IntP("batchSize", "b", 0, "elements per batch, one batch per region when 0")
	EvalCmd.Flags().IntP("workers", "w", 0, "concurrent batch evaluations, the number of CPUs when 0")
	EvalCmd.Flags().Bool("simplify", true, "fold constants of the expression before evaluating")
	EvalCmd.Flags().Bool("metrics", false, "print the evaluation and cache counters")
	EvalCmd.Flags().BoolP("verbose", "v", false, "print the problem parameters")
	for _, name := range []string{"time", "batchSize", "workers", "simplify", "metrics"} {
		_ = viper.BindPFlag(name, EvalCmd.Flags().Lookup(name))
	}
}

func processInput(fileName string) (ip *InputParameters.InputParameters, err error) {
	if len(fileName) == 0 {
		exampleFile := `
########################################
Title: "Plate"
Frequency: 1000
FFTTimeEvals: 16
Nodes: [[0, 0], [2, 0], [2, 1], [0, 1]]
Regions:
  7:
    Type: triangle
    Elements: [[0, 1, 2], [0, 2, 3]]
Parameters:
  rho:
    7: {1: 2320}
Fields:
  u:
    1: [1, 3, 3, 1]
    2: [0, 0, 2, 2]
Expression: "rho u dt *"
########################################
`
		err = fmt.Errorf("must supply a problem file (-I, --inputConditionsFile), for example:%s", exampleFile)
		return
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.InputParameters{}
	err = ip.Parse(data)
	return
}

// RunEval builds the problem and writes the value of its expression on every
// evaluation region to w.
func RunEval(w io.Writer, ip *InputParameters.InputParameters, opts EvalOptions) (err error) {
	var (
		mesh *geometry.Mesh
		op   operation.Operation
	)
	if mesh, err = ip.Mesh(); err != nil {
		return
	}
	params, err := ip.RawParameters()
	if err != nil {
		return
	}
	fields, err := ip.FieldValues(mesh.CountNodes())
	if err != nil {
		return
	}
	a := operation.NewArena()
	a.Frequency = ip.Frequency
	a.FFTTimeEvals = ip.FFTTimeEvals
	a.MaxHarmonic = ip.MaxHarmonic
	if op, err = BuildExpression(a, ip.Expression, params, fields); err != nil {
		return
	}
	regions := ip.EvaluationRegions(mesh)
	if opts.Simplify {
		op = op.Simplify(regions)
	}
	fmt.Fprintf(w, "%s = %v\n", ip.Expression, op)
	d := multiharmonic.NewDriver(opts.Workers)
	for _, r := range regions {
		var (
			eb     *geometry.ElementBlock
			coords []float64
			s      *selector.ElementSelector
		)
		if eb, err = mesh.Block(r); err != nil {
			return
		}
		if coords, _, err = geometry.GaussPoints(eb.Type, ip.QuadratureOrder); err != nil {
			return
		}
		if s, err = selector.NewElementSelector(mesh, []types.DisjointRegion{r}, opts.BatchSize); err != nil {
			return
		}
		np := len(coords) / 3
		fmt.Fprintf(w, "region %d: %d %s elements, %d points\n", r, eb.CountElements(), eb.Type, np)
		if opts.TimeEvals > 0 {
			if err = printTimeSamples(w, d, op, s, coords, opts.TimeEvals); err != nil {
				return
			}
			continue
		}
		var res *multiharmonic.Result
		if res, err = d.InterpolateAll(op, s, coords); err != nil {
			return
		}
		harms := res.Harmonics()
		if len(harms) == 0 {
			fmt.Fprintln(w, "zero")
		}
		for _, h := range harms {
			C, cerr := res.Collect(r, h, eb.CountElements())
			if cerr != nil {
				return cerr
			}
			fmt.Fprintf(w, "harmonic %d\n%v\n", h, mat.Formatted(C, mat.Squeeze()))
		}
	}
	slog.Debug("evaluation done", slog.Int("nodes", a.CountNodes()),
		slog.Int("cached", a.CacheLen()), slog.String("memory", utils.GetMemUsage()))
	if opts.Metrics {
		err = printMetrics(w, prometheus.DefaultGatherer)
	}
	return
}

// printMetrics writes the weakform counters of g, one "name{labels} value"
// line per series.
func printMetrics(w io.Writer, g prometheus.Gatherer) (err error) {
	families, err := g.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "weakform_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			val := m.GetGauge().GetValue()
			if m.GetCounter() != nil {
				val = m.GetCounter().GetValue()
			}
			fmt.Fprintf(w, "%s{%s} %v\n", mf.GetName(), strings.Join(labels, ","), val)
		}
	}
	return
}

func printTimeSamples(w io.Writer, d *multiharmonic.Driver, op operation.Operation,
	s *selector.ElementSelector, coords []float64, N int) (err error) {
	var (
		samples []utils.Matrix
		res     *multiharmonic.Result
	)
	if samples, res, err = d.TimeSamples(op, s, coords, N); err != nil {
		return
	}
	for i, b := range res.Batches {
		_, nc := samples[i].Dims()
		fmt.Fprintf(w, "elements %v\n", b.Elements.Values())
		for n := 0; n < N && nc > 0; n++ {
			fmt.Fprintf(w, "t[%d] %v\n", n, samples[i].Data()[n*nc:(n+1)*nc])
		}
	}
	return
}
