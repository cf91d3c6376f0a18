/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

package rastermask

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
)

// calcFuncs are the functions available to raster calculator expressions.
var calcFuncs = map[string]govaluate.ExpressionFunction{
	"abs":  unaryFunc("abs", math.Abs),
	"sqrt": unaryFunc("sqrt", math.Sqrt),
	"log":  unaryFunc("log", math.Log),
	"exp":  unaryFunc("exp", math.Exp),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("rastermask: got %d arguments for function 'pow', but needs 2", len(args))
		}
		x, y, err := twoFloats("pow", args)
		if err != nil {
			return nil, err
		}
		return math.Pow(x, y), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		x, y, err := twoFloats("min", args)
		if err != nil {
			return nil, err
		}
		return math.Min(x, y), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		x, y, err := twoFloats("max", args)
		if err != nil {
			return nil, err
		}
		return math.Max(x, y), nil
	},
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("rastermask: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("rastermask: argument to '%s' must be a number", name)
		}
		return f(x), nil
	}
}

func twoFloats(name string, args []interface{}) (x, y float64, err error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("rastermask: got %d arguments for function '%s', but needs 2", len(args), name)
	}
	var ok1, ok2 bool
	x, ok1 = args[0].(float64)
	y, ok2 = args[1].(float64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("rastermask: arguments to '%s' must be numbers", name)
	}
	return x, y, nil
}

// calcExpression is a parsed raster calculator expression.
type calcExpression struct {
	expr *govaluate.EvaluableExpression
	vars []string
}

func parseCalc(expr string) (*calcExpression, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, calcFuncs)
	if err != nil {
		return nil, fmt.Errorf("rastermask: parsing expression %q: %v", expr, err)
	}
	vars := e.Vars()
	sort.Strings(vars)
	return &calcExpression{expr: e, vars: removeDuplicates(vars)}, nil
}

// eval evaluates the expression for a single cell. Boolean results are
// converted to 1 or 0. Any NaN input gives a NaN result.
func (c *calcExpression) eval(params map[string]interface{}) (float64, error) {
	for _, v := range params {
		if math.IsNaN(v.(float64)) {
			return math.NaN(), nil
		}
	}
	result, err := c.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}
	switch r := result.(type) {
	case float64:
		return r, nil
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	default:
		return math.NaN(), fmt.Errorf("rastermask: expression returned %T, not a number", result)
	}
}

// Calc evaluates expr for every cell, where the variables in expr refer
// to the layers of the same name. All of the referenced layers must share
// a grid. Comparison operators give 1 when true and 0 when false.
// Variable names that are not valid identifiers can be enclosed in
// square brackets, e.g. "[depth m] < -5".
func Calc(expr string, layers map[string]*Raster) (*Raster, error) {
	c, err := parseCalc(expr)
	if err != nil {
		return nil, err
	}
	if len(c.vars) == 0 {
		return nil, fmt.Errorf("rastermask: expression %q does not reference any layers", expr)
	}
	used := make([]*Raster, len(c.vars))
	for i, v := range c.vars {
		r, ok := layers[v]
		if !ok {
			return nil, fmt.Errorf("rastermask: expression %q references undefined layer %q", expr, v)
		}
		used[i] = r
	}
	if err := CheckAligned(used...); err != nil {
		return nil, err
	}
	o := used[0].like()
	params := make(map[string]interface{}, len(c.vars))
	for i := range o.Data.Elements {
		for j, v := range c.vars {
			params[v] = used[j].Data.Elements[i]
		}
		val, err := c.eval(params)
		if err != nil {
			return nil, fmt.Errorf("rastermask: evaluating %q: %v", expr, err)
		}
		o.Data.Elements[i] = val
	}
	return o, nil
}

// Expression is a criterion that passes cells where a boolean or numeric
// expression of the cell value is true or nonzero. The cell value is
// referred to as "v" within the expression, e.g. "v >= 2 && v < 20".
type Expression struct {
	Expr string
}

// Mask implements Criterion.
func (c Expression) Mask(r *Raster) (*Raster, error) {
	e, err := parseCalc(c.Expr)
	if err != nil {
		return nil, err
	}
	for _, v := range e.vars {
		if v != "v" {
			return nil, fmt.Errorf("rastermask: criterion expression %q may only reference 'v'; got %q", c.Expr, v)
		}
	}
	o := r.like()
	params := make(map[string]interface{}, 1)
	for i, v := range r.Data.Elements {
		params["v"] = v
		val, err := e.eval(params)
		if err != nil {
			return nil, fmt.Errorf("rastermask: evaluating %q: %v", c.Expr, err)
		}
		o.Data.Elements[i] = pass(!math.IsNaN(val) && val != 0)
	}
	return o, nil
}

// removeDuplicates removes duplicate entries from a sorted slice.
func removeDuplicates(s []string) []string {
	var o []string
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			o = append(o, v)
		}
	}
	return o
}
