// cmd/datacode/main.go
package main

import (
	"fmt"
	"os"

	datacode "github.com/Ai-SPB-Holding/DataCode-sub002"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/repl"
)

// Command aliases, trimmed from the teacher's cmd/sentra/main.go to the
// two subcommands this project actually implements.
var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("datacode 0.1.0")
	case "repl":
		repl.Start()
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: datacode run <file>")
			os.Exit(1)
		}
		runFile(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func runFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %s: %v\n", filename, err)
		os.Exit(1)
	}

	if _, err := datacode.Run(string(source)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("DataCode - a scripting language for data-shaped scripts")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  datacode run <file>    Run a DataCode script     (alias: r)")
	fmt.Println("  datacode repl          Start the interactive REPL (alias: i)")
	fmt.Println("  datacode help          Show this message")
	fmt.Println("  datacode version       Show version")
}
