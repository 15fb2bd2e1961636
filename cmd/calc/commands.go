// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/luxfi/calc"
)

const usage = `Commands:
  soma <a> <b>            add a and b
  subtracao <a> <b>       subtract b from a
  multiplicacao <a> <b>   multiply a by b
  divisao <a> <b>         divide a by b
  expressao1 <expr>       evaluate locally, one server call per operator
  expressao2 <expr>       send the whole expression to the server
  help                    show this message
  exit, quit              leave
`

// run executes one command line and reports whether the session should end.
func run(ctx context.Context, c calc.Client, line string, w io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprint(w, usage)
		return false
	case "expressao1":
		report(w, evaluate(ctx, c, calc.ModeDecomposed, rest))
		return false
	case "expressao2":
		report(w, evaluate(ctx, c, calc.ModeFull, rest))
		return false
	}

	op, ok := calc.OpFromMethod(cmd)
	if !ok || op == calc.OpExpression {
		fmt.Fprintf(w, "Unknown command %q. Type 'help' for commands.\n", cmd)
		return false
	}
	report(w, binary(ctx, c, op, rest))
	return false
}

type outcome struct {
	value float64
	err   error
}

func evaluate(ctx context.Context, c calc.Client, mode calc.Mode, expression string) outcome {
	if expression == "" {
		return outcome{err: fmt.Errorf("missing expression")}
	}
	v, err := calc.Evaluate(ctx, c, mode, expression)
	return outcome{v, err}
}

func binary(ctx context.Context, c calc.Client, op calc.Op, args string) outcome {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return outcome{err: fmt.Errorf("%s takes two operands", op)}
	}
	a, err := calc.ParseNumber(fields[0])
	if err != nil {
		return outcome{err: fmt.Errorf("%w: %q", calc.ErrBadOperand, fields[0])}
	}
	b, err := calc.ParseNumber(fields[1])
	if err != nil {
		return outcome{err: fmt.Errorf("%w: %q", calc.ErrBadOperand, fields[1])}
	}
	v, err := c.Call(ctx, calc.Request{Op: op, A: a, B: b})
	return outcome{v, err}
}

func report(w io.Writer, o outcome) {
	if o.err != nil {
		fmt.Fprintf(w, "Error: %v\n", o.err)
		return
	}
	fmt.Fprintf(w, "Resultado: %s\n", calc.FormatNumber(o.value))
}
