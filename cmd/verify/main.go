// Package main provides the verify command that checks a published snapshot and its copies.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"ecpharm/internal/config"
	"ecpharm/internal/normalizer"
	"ecpharm/internal/snapshot"
	"ecpharm/pkg/digest"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default configs/updater.yaml if present)")
	asOf := flag.String("as-of", "", "As-of date to verify (default: newest snapshot)")
	flag.Parse()

	cfg, _, err := config.Resolve(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	store := snapshot.NewStore(cfg.Output)

	date := *asOf
	if date == "" {
		date, err = store.Latest()
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			log.Fatalf("❌ No snapshot in %s\n", cfg.Output.DataDir)
		}
		if err != nil {
			log.Fatalf("❌ %v\n", err)
		}
	}

	source := store.Paths(date).JSON
	fmt.Printf("📂 Reading: %s\n", source)

	// 1. Records
	payload, err := store.LoadSnapshot(date)
	if err != nil {
		log.Fatalf("❌ Error reading snapshot: %v\n", err)
	}

	if payload.Meta.Records != len(payload.Data) {
		log.Fatalf("❌ meta.records is %d but data holds %d records\n", payload.Meta.Records, len(payload.Data))
	}

	if err := normalizer.NewValidator().Validate(payload.Data); err != nil {
		log.Fatalf("❌ Validation Error: %v\n", err)
	}
	fmt.Printf("✅ %d records valid (as of %s)\n", len(payload.Data), payload.Meta.AsOf)

	// 2. Copies
	sums, err := store.Verify(source)
	if errors.Is(err, digest.ErrHashMismatch) {
		fmt.Printf("❌ %v\n", err)
		fmt.Println("   Re-run the updater after removing the snapshot, or copy it by hand.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	for _, s := range sums {
		fmt.Printf("🔐 %s  %s (%d bytes)\n", s.Hash, s.Path, s.Size)
	}

	fmt.Println("✅ All copies match")
}
