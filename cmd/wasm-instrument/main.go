// Command wasm-instrument is the minimal driver spec §6 calls for: parse a
// wasm binary, optionally apply instrumentation marks read from a small
// text file, resolve, and emit the result. Built with the standard
// library flag package and a flag.NewFlagSet-per-subcommand dispatch, the
// same shape cmd/wazero/wazero.go uses.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/wasmkit/wasmkit/decode"
	"github.com/wasmkit/wasmkit/encode"
	"github.com/wasmkit/wasmkit/resolve"
	"github.com/wasmkit/wasmkit/wasm"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")
	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "emit":
		return doEmit(flag.Args()[1:], stdErr)
	case "instrument":
		return doInstrument(flag.Args()[1:], stdErr)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		return 1
	}
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "wasm-instrument CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  wasm-instrument <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  emit\t\tParses a wasm binary and re-encodes it unchanged")
	fmt.Fprintln(stdErr, "  instrument\tApplies instrumentation marks, resolves, and re-encodes")
}

// doEmit parses the input, re-encodes it immediately (no edits), and
// writes the result. It exercises the round-trip path on its own, useful
// for checking that a binary survives parse+encode unchanged.
func doEmit(args []string, stdErr io.Writer) int {
	flags := flag.NewFlagSet("emit", flag.ExitOnError)
	flags.SetOutput(stdErr)

	out := flags.String("o", "", "Output path for the re-encoded binary (required).")
	multiMemory := flags.Bool("multi-memory", true, "Accept non-zero memory indices on memory.size/memory.grow.")
	_ = flags.Parse(args)

	if flags.NArg() < 1 || *out == "" {
		fmt.Fprintln(stdErr, "usage: wasm-instrument emit -o <output> <path to wasm file>")
		return 1
	}

	m, err := parseFile(flags.Arg(0), *multiMemory)
	if err != nil {
		fmt.Fprintf(stdErr, "error parsing wasm binary: %v\n", err)
		return 1
	}

	return emitWasm(m, *out, stdErr)
}

// doInstrument parses the input, applies the directives named in a marks
// file onto the module's instruction streams, runs the instrumentation
// resolver, and writes the re-encoded result.
func doInstrument(args []string, stdErr io.Writer) int {
	flags := flag.NewFlagSet("instrument", flag.ExitOnError)
	flags.SetOutput(stdErr)

	out := flags.String("o", "", "Output path for the re-encoded binary (required).")
	marksPath := flags.String("marks", "", "Path to a before/after instrumentation marks file.")
	multiMemory := flags.Bool("multi-memory", true, "Accept non-zero memory indices on memory.size/memory.grow.")
	_ = flags.Parse(args)

	if flags.NArg() < 1 || *out == "" {
		fmt.Fprintln(stdErr, "usage: wasm-instrument instrument -marks <marks file> -o <output> <path to wasm file>")
		return 1
	}

	m, err := parseFile(flags.Arg(0), *multiMemory)
	if err != nil {
		fmt.Fprintf(stdErr, "error parsing wasm binary: %v\n", err)
		return 1
	}

	if *marksPath != "" {
		marks, err := os.ReadFile(*marksPath)
		if err != nil {
			fmt.Fprintf(stdErr, "error reading marks file: %v\n", err)
			return 1
		}
		if err := applyMarks(m, marks); err != nil {
			fmt.Fprintf(stdErr, "error applying marks: %v\n", err)
			return 1
		}
	}

	if err := resolve.Resolve(m); err != nil {
		fmt.Fprintf(stdErr, "error resolving instrumentation: %v\n", err)
		return 1
	}

	return emitWasm(m, *out, stdErr)
}

func parseFile(path string, multiMemory bool) (*wasm.Module, *wasm.ParseError) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, wasm.NewDecoderError(err)
	}
	return decode.Parse(buf, multiMemory)
}

// emitWasm re-encodes m and writes it to path, logging through a logger
// scoped to this one invocation (spec §7's re-encode warning policy).
func emitWasm(m *wasm.Module, path string, stdErr io.Writer) int {
	logger := logrus.New()
	logger.SetOutput(stdErr)

	enc := encode.NewEncoder(logger)
	bytes := enc.Encode(m)

	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		fmt.Fprintf(stdErr, "error writing output: %v\n", err)
		return 1
	}
	return 0
}
