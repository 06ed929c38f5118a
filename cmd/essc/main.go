// Command essc reads a JSON-encoded ES-tree program from standard input and
// writes the LLVM IR module the generator lowers it to. See SPEC_FULL.md
// Section 6 for the full CLI surface; this file's run(opt) error shape is
// grounded on _examples/hhramberg-go-vslc/src/main.go's own run function.
package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"essc/internal/cli"
	"essc/internal/codegen"
	"essc/internal/estree"
	"essc/internal/util"
)

// version is the compiler's reported version; overridable at link time with
// -ldflags "-X main.version=...".
var version = "dev"

func run(opt cli.Options) error {
	util.SetVerbose(opt.Verbose)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "essc: reading ES-tree program from standard input...")
	}

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("could not read source program: %w", err)
	}

	util.Log.Debug("decoding ES-tree document")
	program, err := estree.Decode(src)
	if err != nil {
		return fmt.Errorf("decode error: %w", err)
	}

	util.Log.Debug("lowering program to LLVM IR")
	ir, err := codegen.Compile(program)
	if err != nil {
		return fmt.Errorf("code generation error: %w", err)
	}

	if opt.Out != "" {
		if err := os.WriteFile(opt.Out, []byte(ir), 0o644); err != nil {
			return fmt.Errorf("could not write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(os.Stdout, ir)
	return err
}

func main() {
	cmd := cli.NewRootCommand(version, run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
