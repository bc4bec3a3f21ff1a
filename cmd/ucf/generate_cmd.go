package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
	"github.com/Mindburn-Labs/ucf/core/pkg/fixtures"
	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// runGenerateCmd implements `ucf generate`: it materializes the registered
// sample set into a fixture corpus and writes the manifest last, so an
// interrupted run never leaves a corpus that looks complete.
func runGenerateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		outDir      string
		profilePath string
	)
	cmd.StringVar(&outDir, "out", "", "Output directory for the corpus (REQUIRED)")
	cmd.StringVar(&profilePath, "profile", "", "Generation profile YAML (suite selection, overwrite)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if outDir == "" {
		fmt.Fprintln(stderr, "Error: -out is required")
		cmd.Usage()
		return 2
	}

	ctx := context.Background()
	logger := newLogger(stderr)

	var profile *fixtures.Profile
	if profilePath != "" {
		p, err := fixtures.LoadProfile(profilePath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: loading profile: %v\n", err)
			return 2
		}
		profile = p
		logger.Info("profile loaded", "path", profilePath, "suites", p.Suites)
	}

	store, err := corpus.NewFileStore(outDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	gen, err := fixtures.NewGenerator(digest.NewEngine(schema.Default()), version)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	manifest, err := gen.Generate(ctx, store, profile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: generating corpus: %v\n", err)
		return 2
	}

	logger.Info("corpus generated", "dir", outDir, "cases", len(manifest.Cases))
	fmt.Fprintf(stdout, "Corpus written: %s (%d cases)\n", outDir, len(manifest.Cases))
	return 0
}
