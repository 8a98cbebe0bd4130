package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/weakform/field"
	"github.com/notargets/weakform/operation"
	"github.com/notargets/weakform/parameter"
)

var (
	unaryOps = map[string]func(operation.Operation) operation.Operation{
		"neg":  operation.Negate,
		"sqrt": operation.Sqrt,
		"abs":  operation.Abs,
		"sin":  operation.Sin,
		"cos":  operation.Cos,
		"exp":  operation.Exp,
		"log":  operation.Log,
		"inv":  operation.Inverse,
		"dx":   operation.Dx,
		"dy":   operation.Dy,
		"dz":   operation.Dz,
		"dt":   operation.Dt,
		"dtdt": operation.Dtdt,
	}
	binaryOps = map[string]func(x, y operation.Operation) operation.Operation{
		"+": func(x, y operation.Operation) operation.Operation { return operation.Sum(x, y) },
		"*": func(x, y operation.Operation) operation.Operation { return operation.Product(x, y) },
		"-": operation.Subtract,
		"/": operation.Divide,
	}
)

/*
BuildExpression parses a reverse polish expression into an operation tree of
the arena. Tokens are numbers, parameter or field names and the operators

	+ - * /            binary
	pow                binary, the exponent must be a number
	neg sqrt abs sin cos exp log inv
	dx dy dz dt dtdt
	harmonicN          keeps harmonic N only, e.g. harmonic3
	reuse              caches the value of the top of the stack

Names resolve to component (0,0) of scalar parameters and fields.
*/
func BuildExpression(a *operation.Arena, expr string, params map[string]*parameter.RawParameter,
	fields map[string]*field.Field) (op operation.Operation, err error) {
	var (
		stack []operation.Operation
		pop   = func(tok string, n int) (args []operation.Operation, err error) {
			if len(stack) < n {
				err = fmt.Errorf("operator %q needs %d operands, have %d", tok, n, len(stack))
				return
			}
			args = stack[len(stack)-n:]
			stack = stack[:len(stack)-n]
			return
		}
		args []operation.Operation
	)
	for _, tok := range strings.Fields(expr) {
		if val, perr := strconv.ParseFloat(tok, 64); perr == nil {
			stack = append(stack, a.Constant(val))
			continue
		}
		if p, ok := params[tok]; ok {
			stack = append(stack, a.Parameter(p, 0, 0))
			continue
		}
		if f, ok := fields[tok]; ok {
			stack = append(stack, a.Field(f, 0))
			continue
		}
		switch {
		case unaryOps[tok] != nil:
			if args, err = pop(tok, 1); err != nil {
				return
			}
			stack = append(stack, unaryOps[tok](args[0]))
		case binaryOps[tok] != nil:
			if args, err = pop(tok, 2); err != nil {
				return
			}
			stack = append(stack, binaryOps[tok](args[0], args[1]))
		case tok == "pow":
			if args, err = pop(tok, 2); err != nil {
				return
			}
			exponent, ok := args[1].ConstantValue()
			if !ok {
				err = fmt.Errorf("the exponent of pow must be a number, have %v", args[1])
				return
			}
			stack = append(stack, operation.Pow(args[0], exponent))
		case tok == "reuse":
			if args, err = pop(tok, 1); err != nil {
				return
			}
			stack = append(stack, args[0].ReuseIt(true))
		case strings.HasPrefix(tok, "harmonic"):
			var h int
			if h, err = strconv.Atoi(strings.TrimPrefix(tok, "harmonic")); err != nil || h < 1 {
				err = fmt.Errorf("bad harmonic selector %q", tok)
				return
			}
			if args, err = pop(tok, 1); err != nil {
				return
			}
			stack = append(stack, operation.Harmonic(args[0], h))
		default:
			err = fmt.Errorf("unknown token %q, not a number, parameter, field or operator", tok)
			return
		}
	}
	if len(stack) != 1 {
		err = fmt.Errorf("expression %q leaves %d values on the stack, expected 1", expr, len(stack))
		return
	}
	op = stack[0]
	return
}
