package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cr0sh/lc3p2atest/harness"
	"github.com/cr0sh/lc3p2atest/harness/lc3"
)

// version is printed in the startup banner.
const version = "0.3.0"

var (
	// CLI flags for the test run
	logLevel         string // Log verbosity level
	seed             uint64 // Run seed; every case is derived from it
	workers          int    // Cases run concurrently per group
	rounds           int    // Randomized rounds after the plain round
	instructionLimit uint64 // Per-case instruction budget for limited groups
	planPath         string // Optional YAML test plan
	artifactDir      string // Directory receiving mismatch_*.txt
	supportImagePath string // Replacement support runtime object file
	resultsPath      string // File to save the JSON results to
	noBanner         bool   // Suppress the startup banner
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lc3p2atest",
	Short: "Differential tester for LC-3 min-heap programs",
}

// runCmd tests a target object file against the reference heap model
var runCmd = &cobra.Command{
	Use:   "run <target.obj>",
	Short: "Run the test plan against an LC-3 object file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !noBanner {
			printBanner()
		}

		plan := harness.DefaultPlan()
		if planPath != "" {
			p, err := harness.LoadPlan(planPath)
			if err != nil {
				logrus.Fatalf("Failed to load test plan: %v", err)
			}
			plan = p
			logrus.Infof("Loaded test plan from %s (%d groups)", planPath, len(plan.Groups))
		}
		// Flags override the plan only when explicitly set
		if cmd.Flags().Changed("rounds") {
			plan.Rounds = rounds
		}
		if cmd.Flags().Changed("instruction-limit") {
			plan.InstructionLimit = instructionLimit
		}
		if err := plan.Validate(); err != nil {
			logrus.Fatalf("Invalid test plan: %v", err)
		}
		if workers < 1 {
			logrus.Fatalf("--workers must be >= 1, got %d", workers)
		}
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}

		target, err := os.ReadFile(args[0])
		if err != nil {
			logrus.Fatalf("Cannot open object file: %v", err)
		}
		support := lc3.SupportImage()
		if supportImagePath != "" {
			if support, err = os.ReadFile(supportImagePath); err != nil {
				logrus.Fatalf("Cannot open support image: %v", err)
			}
			logrus.Warnf("Using support image %s instead of the built-in runtime", supportImagePath)
		}
		base, err := harness.Boot(support, target)
		if err != nil {
			logrus.Fatalf("Failed to boot machine: %v", err)
		}

		fmt.Printf("Seed: %d (rerun with --seed %d)\n", seed, seed)
		logrus.Infof("Starting test run: %d groups, %d cases per round, %d randomized rounds, %d workers, limit=%d",
			len(plan.Groups), plan.TotalCases(), plan.Rounds, workers, plan.InstructionLimit)

		prog := newProgress(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
		s := harness.Scheduler{
			Plan:         plan,
			Workers:      workers,
			Seed:         seed,
			Reboot:       base.Reboots(seed, support, target),
			OnRoundStart: prog.roundStart(plan.Rounds),
			OnGroupStart: prog.groupStart(plan),
			OnGroupDone:  prog.groupDone,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := s.Run(ctx, base)
		if err != nil {
			logrus.Fatalf("Test run aborted: %v", err)
		}

		if f := res.Failure; f != nil {
			prog.failed()
			fmt.Printf("\tTest failed: %s\n", f.Summary())
			a := harness.DefaultArtifacts(artifactDir)
			if err := f.WriteArtifacts(a); err != nil {
				logrus.Errorf("Failed to record the failing case: %v", err)
			} else {
				fmt.Printf("\tThe case was written to %s, %s and %s.\n", a.Input, a.Output, a.Expect)
				fmt.Println("\tCompare expect with output in a diff tool to locate the difference.")
			}
		} else {
			fmt.Println("** All test groups passed.")
		}
		fmt.Printf("** Total time: %s\n", res.Finished.Sub(res.Started).Round(time.Millisecond))

		if resultsPath != "" {
			if err := res.SaveResults(resultsPath); err != nil {
				logrus.Errorf("Failed to save results: %v", err)
			}
		}
		if !res.Passed() {
			os.Exit(1)
		}
		logrus.Info("Test run complete.")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func printBanner() {
	fmt.Printf("LC-3 project #2A tester v%s\n", version)
	fmt.Println("Tests an LC-3 min-heap program against a reference model on randomized command scripts.")
	fmt.Println()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Uint64Var(&seed, "seed", 0, "Run seed (default: derived from the clock)")
	runCmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Cases run concurrently per group (1 = sequential)")
	runCmd.Flags().IntVar(&rounds, "rounds", harness.DefaultRandomizedRounds, "Randomized rounds after the plain round")
	runCmd.Flags().Uint64Var(&instructionLimit, "instruction-limit", harness.DefaultInstructionLimit, "Per-case instruction budget for limited groups")
	runCmd.Flags().StringVar(&planPath, "plan", "", "Path to YAML test plan (default: built-in plan)")
	runCmd.Flags().StringVar(&artifactDir, "artifact-dir", ".", "Directory receiving mismatch_*.txt on failure")
	runCmd.Flags().StringVar(&supportImagePath, "support-image", "", "Object file replacing the built-in support runtime")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "File to save JSON results to")
	runCmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(shellCmd)
}
