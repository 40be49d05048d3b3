package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/exprcalc"
	"github.com/zephyrtronium/exprcalc/internal/bindings"
	"github.com/zephyrtronium/exprcalc/internal/render"
)

// errReported is returned when failures were already written to stderr.
var errReported = errors.New("one or more expressions failed")

type rootFlags struct {
	variables []string
	varsFile  string
	list      bool
	output    string
	echo      bool
	logLevel  string
	in        string
	lines     bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "exprcalc [flags] [expression]",
		Short: "Evaluate arithmetic expressions safely",
		Long: `exprcalc evaluates a single arithmetic expression written in a small,
Python-like language with a fixed set of math functions. Nothing outside the
expression language is reachable: no imports, attributes, or assignments.

With no expression argument, expressions are read from --in or stdin.
Surround the expression with quotes to avoid shell expansion, and use -- before
an expression that starts with a minus sign.

Example:
  exprcalc '2 + 3 * 4'
  exprcalc -v principal=1000 -v rate=0.07 'round(principal * (1 + rate) ** 10, 2)'
  exprcalc -n --in exprs.txt
  exprcalc serve --addr :8080
`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, &f, args)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringArrayVarP(&f.variables, "variable", "v", nil, "variable binding NAME=VALUE with a literal value (repeatable)")
	pf.StringVarP(&f.varsFile, "vars-file", "f", "", "YAML file mapping variable names to values")
	pf.StringVar(&f.logLevel, "log-level", "warn", "diagnostic log level on stderr")
	fl := cmd.Flags()
	fl.BoolVarP(&f.list, "list-functions", "l", false, "show built-in function names and exit")
	fl.StringVarP(&f.output, "output", "o", "text", "result format: text or json")
	fl.BoolVar(&f.echo, "echo", false, "print the parse tree before each result")
	fl.StringVar(&f.in, "in", "", "input file, or - for stdin (default stdin if no expression is given)")
	fl.BoolVarP(&f.lines, "lines", "n", false, "treat each input line as a separate expression")
	cmd.AddCommand(newServeCmd(&f))
	return cmd
}

// logger creates the diagnostic logger for a command.
func logger(cmd *cobra.Command, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	w := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true, TimeFormat: time.TimeOnly}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// contextOptions loads variable bindings, file bindings first so that
// command-line bindings replace them.
func contextOptions(f *rootFlags) ([]exprcalc.ContextOption, error) {
	var bs []bindings.Binding
	if f.varsFile != "" {
		fb, err := bindings.LoadFile(f.varsFile)
		if err != nil {
			return nil, err
		}
		bs = fb
	}
	for _, v := range f.variables {
		b, err := bindings.ParseAssignment(v)
		if err != nil {
			return nil, err
		}
		bs = append(bs, b)
	}
	return bindings.Options(bs), nil
}

func runRoot(cmd *cobra.Command, f *rootFlags, args []string) error {
	log, err := logger(cmd, f.logLevel)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if f.list {
		for _, name := range exprcalc.ListFunctions() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("invalid output format %q", f.output)
	}
	opts, err := contextOptions(f)
	if err != nil {
		return err
	}
	srcs, err := sources(cmd, f, args)
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		return errors.New("no expression given")
	}
	ctx := exprcalc.NewContext(opts...)
	failed := false
	for _, src := range srcs {
		err := evalOne(cmd, f, log, ctx, src)
		if err == nil {
			continue
		}
		if len(srcs) == 1 {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exprcalc: error: %v\n", err)
		failed = true
	}
	if failed {
		return errReported
	}
	return nil
}

// sources collects the expressions to evaluate.
func sources(cmd *cobra.Command, f *rootFlags, args []string) ([]string, error) {
	if len(args) == 1 {
		if f.in != "" {
			return nil, errors.New("cannot use --in with an expression argument")
		}
		return args, nil
	}
	var r io.Reader
	switch f.in {
	case "", "-":
		r = cmd.InOrStdin()
	default:
		file, err := os.Open(f.in)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	if !f.lines {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(b)) == "" {
			return nil, nil
		}
		return []string{strings.TrimRight(string(b), "\r\n")}, nil
	}
	var srcs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			srcs = append(srcs, sc.Text())
		}
	}
	return srcs, sc.Err()
}

func evalOne(cmd *cobra.Command, f *rootFlags, log zerolog.Logger, ctx *exprcalc.Context, src string) error {
	start := time.Now()
	r, err := ctx.EvalString(src)
	log.Debug().Str("src", src).Dur("took", time.Since(start)).Err(err).Msg("evaluated")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if f.echo {
		// src already parsed once without error.
		e, _ := exprcalc.Parse(src)
		fmt.Fprintf(out, "%v : ", e)
	}
	switch f.output {
	case "json":
		b, err := render.JSON(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", b)
	default:
		fmt.Fprintln(out, render.Text(r))
	}
	return nil
}
