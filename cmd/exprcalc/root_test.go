package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprcalc"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errw bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errw)
	cmd.SetIn(strings.NewReader(stdin))
	err = cmd.Execute()
	return out.String(), errw.String(), err
}

func TestRun(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"int", []string{"2 + 3 * 4"}, "14\n"},
		{"float", []string{"7 / 2"}, "3.5\n"},
		{"negative zero", []string{"--", "-0.0"}, "0.0\n"},
		{"negative zero product", []string{"0.0 * -1"}, "0.0\n"},
		{"string", []string{"'ab' * 2"}, "abab\n"},
		{"list", []string{"[1, 'a', None]"}, "[1, 'a', None]\n"},
		{"variables", []string{"-v", "x=2", "--variable", "y = [1, 2]", "x * sum(y)"}, "6\n"},
		{"variable override", []string{"-v", "x=1", "-v", "x=5", "x"}, "5\n"},
		{"json", []string{"-o", "json", "[1.5, (2,), {'k': None}]"}, "[1.5,[2],{\"k\":null}]\n"},
		{"json nan", []string{"--output=json", "nan"}, "\"nan\"\n"},
		{"echo", []string{"--echo", "1 + 2 * 3"}, "(1 + (2 * 3)) : 7\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, _, err := run(t, "", c.args...)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestRunErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown function", []string{"__import__('os')"}, "unknown function '__import__'"},
		{"syntax", []string{"1 +"}, "invalid expression syntax"},
		{"blank", []string{"   "}, "expression must be a non-empty string"},
		{"bad variable name", []string{"-v", "1x=2", "1x"}, "Invalid variable name '1x'. Variable names must be identifiers."},
		{"bad variable form", []string{"-v", "x", "x"}, "Variables must be in the form name=value."},
		{"bad variable value", []string{"-v", "x=y", "x"}, "Unable to parse value for variable 'x': y"},
		{"bad output", []string{"-o", "xml", "1"}, `invalid output format "xml"`},
		{"bad log level", []string{"--log-level", "loud", "1"}, `invalid log level "loud"`},
		{"too many args", []string{"1", "2"}, "accepts at most 1 arg(s), received 2"},
		{"unknown flag", []string{"--nope", "1"}, "unknown flag: --nope"},
		{"missing vars file", []string{"-f", "/nonexistent/vars.yaml", "1"}, "failed to read variables file"},
		{"in with arg", []string{"--in", "x.txt", "1"}, "cannot use --in with an expression argument"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, _, err := run(t, "", c.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.msg)
			assert.Empty(t, out)
		})
	}
}

func TestEvaluationErrorType(t *testing.T) {
	_, _, err := run(t, "", "log(0)")
	var ee *exprcalc.EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "math domain error", ee.Msg)
}

func TestListFunctions(t *testing.T) {
	out, _, err := run(t, "", "-l")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(exprcalc.ListFunctions(), "\n")+"\n", out)

	out, _, err = run(t, "", "--list-functions", "ignored")
	require.NoError(t, err)
	assert.Contains(t, out, "sqrt\n")
}

func TestVarsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("principal: 1000\nrate: 0.05\nyears: 2\n"), 0o644))

	out, _, err := run(t, "", "-f", path, "round(principal * (1 + rate) ** years, 2)")
	require.NoError(t, err)
	assert.Equal(t, "1102.5\n", out)

	out, _, err = run(t, "", "--vars-file", path, "-v", "years=0", "principal * (1 + rate) ** years")
	require.NoError(t, err)
	assert.Equal(t, "1000.0\n", out)
}

func TestStdin(t *testing.T) {
	out, _, err := run(t, "(1 +\n 2)\n")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, _, err = run(t, "  \n")
	assert.EqualError(t, err, "no expression given")
}

func TestLines(t *testing.T) {
	out, stderr, err := run(t, "1 + 1\n\n2 ** 3\nnope\nabs(-4)\n", "-n", "--echo")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "(1 + 1) : 2\n(2 ** 3) : 8\nabs((-4)) : 4\n", out)
	assert.Equal(t, "exprcalc: error: unknown variable 'nope'\n", stderr)

	path := filepath.Join(t.TempDir(), "exprs.txt")
	require.NoError(t, os.WriteFile(path, []byte("pi > 3\nmax(1, 2)\n"), 0o644))
	out, _, err = run(t, "", "--in", path, "--lines")
	require.NoError(t, err)
	assert.Equal(t, "True\n2\n", out)
}

func TestDebugLog(t *testing.T) {
	_, stderr, err := run(t, "", "--log-level", "debug", "x + 1", "-v", "x=1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "evaluated")
	assert.Contains(t, stderr, "x + 1")

	_, stderr, err = run(t, "", "x + 1", "-v", "x=1")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}
