// Package main provides the updater command that refreshes the pharmacy list snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ecpharm/internal/config"
	"ecpharm/internal/logger"
	"ecpharm/internal/updater"
	"ecpharm/pkg/utils"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default configs/updater.yaml if present)")
	localFile := flag.String("xlsx", "", "Local spreadsheet to normalize instead of downloading (requires -as-of)")
	asOf := flag.String("as-of", "", "As-of date YYYY-MM-DD for local mode")
	sourceXlsx := flag.String("source-xlsx", "", "Spreadsheet URL recorded in meta for local mode (default: the -xlsx path)")
	saveConfig := flag.String("save-config", "", "Write the resolved configuration to this YAML path and exit")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	cfg, path, err := config.Resolve(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	if path != "" {
		fmt.Printf("⚙️  Configuration loaded from %s: %s\n", path, cfg)
	} else {
		fmt.Printf("⚙️  Using built-in configuration: %s\n", cfg)
	}

	if *saveConfig != "" {
		if err := cfg.SaveConfig(*saveConfig); err != nil {
			log.Fatalf("❌ Failed to save config: %v\n", err)
		}
		fmt.Printf("💾 Configuration written to %s\n", *saveConfig)
		return
	}

	printHeader(cfg, *localFile)

	runner, err := updater.NewRunner(cfg, logger.NewLogger(cfg.Logging.Level))
	if err != nil {
		log.Fatalf("❌ Failed to create updater: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := runner.Run(ctx, updater.Options{
		LocalXLSX:  *localFile,
		AsOf:       *asOf,
		SourceXlsx: *sourceXlsx,
	})
	if err != nil {
		stop()
		log.Fatalf("❌ Update failed: %v\n", err)
	}

	if out.UpToDate {
		fmt.Printf("✅ No update needed: %s already exists\n", out.Paths.JSON)
		return
	}

	printOutcome(out)

	fmt.Println("\n✨ Update complete!")
}

func printHeader(cfg *config.Config, localFile string) {
	fmt.Println("💊 Emergency Contraception Pharmacy List Updater")

	if localFile != "" {
		fmt.Printf("Source: local file %s\n", localFile)
	} else {
		fmt.Printf("Source: %s\n", cfg.Source.PageURL)
	}

	fmt.Printf("Output: %s (+%d mirrors)\n", cfg.Output.DataDir, len(cfg.Output.Mirrors))
	fmt.Println()
}

func printOutcome(out *updater.Outcome) {
	str := utils.NewStringHelper()

	fmt.Printf("\n🔍 Source header: %s\n", out.Header)
	out.Header.PrintWarnings(os.Stdout)

	fmt.Printf("\n📊 As of %s: %d records (%d without id, %d without municipality)\n",
		out.AsOf,
		out.Snapshot.Meta.Records,
		out.Report.NullIDs,
		out.Report.EmptyMunicipalities,
	)
	fmt.Printf("   Spreadsheet: %s\n", str.TruncateString(out.Snapshot.Meta.SourceXlsx, 80))

	fmt.Println("\n📝 Artifacts:")
	fmt.Printf("  %s\n", out.Paths.CleanXLSX)
	fmt.Printf("  %s\n", out.Paths.CleanCSV)
	fmt.Printf("  %s\n", out.Paths.JSON)

	fmt.Println("\n🔐 Published copies:")

	for _, d := range out.Digests {
		fmt.Printf("  %s  %s (%d bytes)\n", d.Hash[:12], d.Path, d.Size)
	}

	fmt.Printf("\n%s", out.Summary)
	fmt.Printf("\n⏱️  Took %.2fs (run %s)\n", out.Duration.Seconds(), out.RunID)
}

func printUsage() {
	fmt.Println("Usage: ./bin/updater [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  1. Remote:     ./bin/updater [-config configs/updater.yaml]")
	fmt.Println("  2. Local file: ./bin/updater -xlsx <PATH> -as-of <YYYY-MM-DD>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %s, %s, %s, %s, %s\n", config.EnvPageURL, config.EnvDataDir, config.EnvLogLevel, config.EnvMetricsTextfile, config.EnvTimeoutSec)
	fmt.Println("  A .env file in the working directory is loaded first; a malformed one is an error.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/updater")
	fmt.Println("  ./bin/updater -config configs/updater.yaml")
	fmt.Println("  ./bin/updater -save-config configs/updater.yaml")
	fmt.Println("  ./bin/updater -xlsx data/source_raw_2026-01-27.xlsx -as-of 2026-01-27")
}
