// Package repl implements the interactive read-eval-print loop, one line
// at a time against a persistent datacode.Interpreter so globals declared
// on one line stay visible on the next. Grounded on
// sentra-language-sentra/internal/repl/repl.go's scan-compile-run loop
// shape, rewired onto the datacode package's lex/parse/resolve/compile/
// run pipeline instead of the teacher's standalone compiler/VM pair.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	datacode "github.com/Ai-SPB-Holding/DataCode-sub002"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// Start runs the REPL against stdin/stdout until "exit" or EOF.
func Start() {
	Run(os.Stdin, os.Stdout)
}

// Run drives the REPL loop over the given reader/writer, so it can be
// exercised from a test with an in-memory pipe instead of the real
// terminal.
func Run(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "DataCode REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(in)
	interp := datacode.New()

	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		result, err := interp.Exec(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if result.Kind != value.KindNull {
			fmt.Fprintln(out, result.String())
		}
	}
}
