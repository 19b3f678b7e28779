package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cr0sh/lc3p2atest/harness"
)

var traceShowInput bool // Print the normalized script before the trace

// traceCmd prints the expected trace of a command script
var traceCmd = &cobra.Command{
	Use:   "trace <script|->",
	Short: "Print the trace a correct program prints for a command script",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			logrus.Fatalf("Cannot read script: %v", err)
		}

		seq, err := harness.ParseScript(string(data))
		if err != nil {
			logrus.Fatalf("Invalid script: %v", err)
		}
		logrus.Debugf("Parsed %d operations (%d inserts)", len(seq), seq.Pushes())

		c := harness.Compile(seq)
		if traceShowInput {
			fmt.Print(c.Input)
			fmt.Println("----")
		}
		fmt.Print(c.Expect)
	},
}

func init() {
	traceCmd.Flags().BoolVar(&traceShowInput, "show-input", false, "Print the normalized script before the trace")
}
