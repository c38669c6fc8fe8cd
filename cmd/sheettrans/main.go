package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/sheettrans/internal/archive"
	"codeberg.org/snonux/sheettrans/internal/cache"
	"codeberg.org/snonux/sheettrans/internal/cli"
	"codeberg.org/snonux/sheettrans/internal/models"
	"codeberg.org/snonux/sheettrans/internal/processor"
)

var red = color.New(color.Bold, color.FgRed).SprintFunc()

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)
	rootCmd.SilenceErrors = true

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Ctrl-C stops new backend calls; finished work is still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx := cmd.Context()

	// Settings from the config file and environment apply where no flag was given
	cli.ResolveFlags(flags)

	// Handle --archive-cache flag
	if flags.ArchiveCache {
		if !cache.IsFile(flags.CachePath) {
			return fmt.Errorf("cache %q is not a file and cannot be archived", flags.CachePath)
		}
		archivePath, err := archive.ArchiveCache(flags.CachePath)
		if err != nil {
			return fmt.Errorf("failed to archive cache: %w", err)
		}
		fmt.Printf("Cache archived to: %s\n", archivePath)
		return nil
	}

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey(), flags.BaseURL)
		return lister.ListAvailableModels(ctx, os.Stdout)
	}

	if flags.BatchFile == "" && len(args) == 0 {
		return errors.New("no input workbook given (use sheettrans <input.xlsx> or --batch <file>)")
	}

	if err := flags.Validate(); err != nil {
		return err
	}

	// Usage is only useful for mistakes on the command line
	cmd.SilenceUsage = true

	// Create processor
	proc, err := processor.NewProcessor(ctx, flags)
	if err != nil {
		return err
	}
	defer func() {
		if err := proc.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close cache: %v\n", err)
		}
	}()

	// Handle batch processing
	if flags.BatchFile != "" {
		return proc.ProcessBatch(ctx)
	}

	_, err = proc.ProcessFile(ctx, args[0], flags.Output)
	return err
}
