package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cr0sh/lc3p2atest/harness"
	"github.com/cr0sh/lc3p2atest/harness/heap"
)

const (
	shellPrompt  = "heap> "
	historyFile  = ".lc3p2atest_history"
	shellHelpMsg = "commands: i <value>  insert, r  remove, l  list, q  quit"
)

// shellCmd runs the reference heap interactively
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Drive the reference heap model interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		fmt.Println(shellHelpMsg)

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		var histPath string
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, historyFile)
			if f, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
		}
		defer func() {
			if histPath == "" {
				return
			}
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()

		model := heap.New(os.Stdout)
		for {
			line, err := ln.Prompt(shellPrompt)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
					logrus.Errorf("Reading input: %v", err)
				}
				fmt.Println()
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			ln.AppendHistory(line)

			quit, err := shellStep(model, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if quit {
				fmt.Print(harness.QuitEcho)
				return
			}
		}
	},
}

// shellStep executes one shell line against model.
func shellStep(model *heap.Model, line string) (quit bool, err error) {
	switch line {
	case "l":
		return false, model.List()
	case "h", "help":
		fmt.Println(shellHelpMsg)
		return false, nil
	}
	op, quit, err := harness.ParseCommand(line)
	if err != nil || quit {
		return quit, err
	}
	if op.Kind == harness.OpPop {
		return false, model.Remove()
	}
	return false, model.Insert(op.Value)
}
