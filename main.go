package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"batchrunner/config"
	"batchrunner/engine"
	"batchrunner/log"
	"batchrunner/script"
	"batchrunner/ui"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	parallelFlag   int
	argsFlag       string
	allowDupesFlag bool

	rootCmd = &cobra.Command{
		Use:   "batchrunner [scripts...]",
		Short: "Run a batch of scripts with bounded parallelism",
		Long: "batchrunner queues the given scripts and executes them through the " +
			"system shell, at most N at a time. Ctrl+C stops gracefully: running " +
			"scripts finish, nothing new is dispatched.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()

			parallel := cfg.MaxParallel
			if cmd.Flags().Changed("parallel") {
				parallel = parallelFlag
			}
			allowDupes := cfg.AllowDuplicates
			if cmd.Flags().Changed("allow-duplicates") {
				allowDupes = allowDupesFlag
			}

			return run(cfg, args, parallel, argsFlag, allowDupes)
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			fmt.Printf("Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of batchrunner",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("batchrunner version %s\n", version)
		},
	}
)

func run(cfg *config.Config, scripts []string, parallel int, globalArgs string, allowDupes bool) error {
	reporter := ui.NewConsoleReporter(os.Stdout)
	controller := engine.NewController(engine.ControllerConfig{
		PollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
	}, script.NewRunner(), reporter)
	defer controller.Close()
	reporter.Attach(controller.Backlog())

	seen := make(map[string]bool)
	added := 0
	for _, path := range scripts {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !allowDupes && seen[abs] {
			fmt.Printf("skipping duplicate: %s\n", path)
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			fmt.Printf("skipping missing script: %s\n", path)
			log.WarningLog.Printf("script not found: %s", abs)
			continue
		}
		if _, err := controller.AddTask(abs, globalArgs); err != nil {
			return fmt.Errorf("failed to add %s: %w", path, err)
		}
		seen[abs] = true
		added++
	}
	if added == 0 {
		return fmt.Errorf("no runnable scripts given")
	}

	if err := controller.Start(parallel); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	// First interrupt stops gracefully, second one abandons ship.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nstopping: running scripts will finish")
		if err := controller.Stop(); err != nil {
			log.ErrorLog.Printf("stop failed: %v", err)
		}
		<-sigCh
		log.WarningLog.Printf("second interrupt, exiting immediately")
		os.Exit(1)
	}()

	summary := reporter.Wait()
	signal.Stop(sigCh)

	if summary.StoppedByFailure {
		return fmt.Errorf("execution environment failure, %d scripts not run", summary.RemainingPending)
	}
	return nil
}

func init() {
	rootCmd.Flags().IntVarP(&parallelFlag, "parallel", "n", config.DefaultConfig().MaxParallel,
		"Maximum number of scripts running at the same time")
	rootCmd.Flags().StringVarP(&argsFlag, "args", "a", "",
		"Argument string passed to every script")
	rootCmd.Flags().BoolVar(&allowDupesFlag, "allow-duplicates", false,
		"Allow the same script path to be queued more than once")

	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
