package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/weakform/InputParameters"
	"github.com/notargets/weakform/field"
	"github.com/notargets/weakform/operation"
	"github.com/notargets/weakform/parameter"
)

var plate = []byte(`
Title: Plate
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
    3: [0, 2, 1, -1]
Expression: "rho 2 *"
`)

func TestBuildExpression(t *testing.T) {
	var (
		a      = operation.NewArena()
		params = map[string]*parameter.RawParameter{"E": parameter.NewRawParameter("E", 1, 1)}
		fields = map[string]*field.Field{"u": field.NewField("u", 1)}
	)
	{ // Valid expressions
		for expr, str := range map[string]string{
			"E u * 2 +":   "(E*u + 2)",
			"E u -":       "(E + -1*u)",
			"u 2 pow":     "pow(u,2)",
			"u dx":        "dx(u)",
			"u harmonic2": "u.harmonic(2)",
			"u sqrt":      "sqrt(u)",
		} {
			op, err := BuildExpression(a, expr, params, fields)
			require.NoError(t, err, expr)
			assert.Equal(t, str, op.String(), expr)
		}
		op, err := BuildExpression(a, "u reuse", params, fields)
		require.NoError(t, err)
		assert.True(t, op.IsReused())
		assert.Equal(t, operation.KindField, op.Kind())
	}
	{ // Malformed expressions
		for _, expr := range []string{
			"u +", "u v", "1 2", "u u pow", "u harmonic0", "u harmonicx", "", "dt",
		} {
			_, err := BuildExpression(a, expr, params, fields)
			assert.Error(t, err, expr)
		}
	}
}

func TestRunEval(t *testing.T) {
	var ip InputParameters.InputParameters
	require.NoError(t, ip.Parse(plate))
	{ // Harmonics
		var out bytes.Buffer
		require.NoError(t, RunEval(&out, &ip, EvalOptions{Simplify: true}))
		s := out.String()
		assert.True(t, strings.HasPrefix(s, "rho 2 * = 4640\n"), s)
		assert.Contains(t, s, "region 7: 2 triangle elements, 4 points")
		assert.Contains(t, s, "harmonic 1")
		assert.NotContains(t, s, "harmonic 3")
		assert.Contains(t, s, "4640")
	}
	{ // Time samples, one batch per element
		ip.Expression = "rho u *"
		var out bytes.Buffer
		require.NoError(t, RunEval(&out, &ip, EvalOptions{TimeEvals: 4, BatchSize: 1, Workers: 2}))
		s := out.String()
		assert.True(t, strings.HasPrefix(s, "rho u * = rho*u\n"), s)
		assert.Contains(t, s, "elements [0]")
		assert.Contains(t, s, "elements [1]")
		assert.Equal(t, 8, strings.Count(s, "t["))
	}
	{ // Counters of the evaluation
		var out bytes.Buffer
		require.NoError(t, RunEval(&out, &ip, EvalOptions{Metrics: true}))
		s := out.String()
		assert.Contains(t, s, `weakform_operation_evaluations_total{kind="product"}`)
		assert.Contains(t, s, "weakform_operation_cache_entries{}")
		assert.NotContains(t, s, "go_goroutines")
	}
	{ // Unknown parameter in the expression
		ip.Expression = "E u *"
		assert.Error(t, RunEval(&bytes.Buffer{}, &ip, EvalOptions{}))
	}
}
