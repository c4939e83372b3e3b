package repl

import (
	"bytes"
	"strings"
	"testing"
)

func TestReplRunsStatementsAcrossLinesWithoutError(t *testing.T) {
	in := strings.NewReader("global x = 2 + 3\nglobal y = x * 10\nexit\n")
	var out bytes.Buffer

	Run(in, &out)

	got := out.String()
	if strings.Contains(got, "error:") {
		t.Fatalf("expected no errors, got:\n%s", got)
	}
	if !strings.Contains(got, ">>>") {
		t.Fatalf("expected the prompt to appear, got:\n%s", got)
	}
}

func TestReplReportsErrorsWithoutStopping(t *testing.T) {
	in := strings.NewReader("global x = (\nglobal y = 1 + 1\nexit\n")
	var out bytes.Buffer

	Run(in, &out)

	got := out.String()
	if !strings.Contains(got, "error:") {
		t.Fatalf("expected an error line in REPL output, got:\n%s", got)
	}
}
