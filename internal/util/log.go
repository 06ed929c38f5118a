// Package util holds small stateful helpers used by the CLI driver, in the
// spirit of the teacher's own util package (package-level
// state such as src/util/args.go's Options or src/util/label.go's counters)
// adapted here to back structured logging instead.
package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-level logger the CLI driver writes through. Grounded on
// Consensys-go-corset's direct logrus usage (see DESIGN.md); output, level and
// formatter are configured once by the package's init function.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	Log.SetLevel(logrus.InfoLevel)
}

// SetVerbose raises the logger to debug level when the CLI's --verbose flag is
// set.
func SetVerbose(verbose bool) {
	if verbose {
		Log.SetLevel(logrus.DebugLevel)
	}
}
