// Package cli builds the essc command line surface. Grounded on
// Consensys-go-corset's direct cobra command tree and on
// _examples/hhramberg-go-vslc/src/util/args.go's Options struct, rebuilt with
// cobra/pflag instead of a hand-rolled parser (see DESIGN.md for why
// args.go's own parser was dropped rather than adapted).
package cli

import (
	"github.com/spf13/cobra"
)

// Options mirrors the shape of the teacher's util.Options, trimmed to the
// much narrower, fixed-target surface this generator needs (SPEC_FULL.md
// Section 6): no thread count, no target triple components, no token-stream
// or backend-selection flags.
type Options struct {
	Out     string
	Verbose bool
}

// NewRootCommand builds the essc root command. run is invoked with the parsed
// Options once cobra has bound flags and consumed os.Args.
func NewRootCommand(version string, run func(Options) error) *cobra.Command {
	opt := Options{}

	cmd := &cobra.Command{
		Use:     "essc",
		Short:   "Lower an ES-tree program into LLVM IR",
		Long:    "essc reads a JSON-encoded ES-tree program from standard input and writes the textual LLVM IR module it lowers to, targeting 32-bit WebAssembly.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opt)
		},
	}

	cmd.Flags().StringVarP(&opt.Out, "out", "o", "", "write the generated IR to this file instead of stdout")
	cmd.Flags().BoolVarP(&opt.Verbose, "verbose", "b", false, "enable debug-level logging of compilation stages")

	return cmd
}
