package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
	"github.com/Mindburn-Labs/ucf/core/pkg/fixtures"
	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// runVerifyCmd implements `ucf verify`: every fixture in the corpus is
// decoded, re-encoded, and re-digested against the registry, and the
// aggregated report is printed or written as canonical JSON.
//
// Exit codes:
//
//	0 = corpus verified
//	1 = verification failed
//	2 = runtime error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		corpusDir  string
		reportPath string
		jsonOutput bool
		anchor     bool
	)
	cmd.StringVar(&corpusDir, "corpus", "", "Corpus directory to verify (REQUIRED)")
	cmd.StringVar(&reportPath, "report", "", "Write the canonical JSON report to this file")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the report as canonical JSON")
	cmd.BoolVar(&anchor, "anchor", false, "Record the verified corpus digest on the chain ledger")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if corpusDir == "" {
		fmt.Fprintln(stderr, "Error: -corpus is required")
		cmd.Usage()
		return 2
	}

	ctx := context.Background()
	logger := newLogger(stderr)

	store, err := corpus.NewFileStore(corpusDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	verifier, err := fixtures.NewVerifier(digest.NewEngine(schema.Default()), version)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	report, verr := verifier.Verify(ctx, store)
	if verr != nil && !errors.Is(verr, fixtures.ErrFixtureMismatch) {
		fmt.Fprintf(stderr, "Error: %v\n", verr)
		return 2
	}

	if reportPath != "" {
		data, err := report.CanonicalJSON()
		if err != nil {
			fmt.Fprintf(stderr, "Error: encoding report: %v\n", err)
			return 2
		}
		if err := os.WriteFile(reportPath, data, 0644); err != nil {
			fmt.Fprintf(stderr, "Error: writing report: %v\n", err)
			return 2
		}
		logger.Info("report written", "path", reportPath)
	}

	if jsonOutput {
		data, err := report.CanonicalJSON()
		if err != nil {
			fmt.Fprintf(stderr, "Error: encoding report: %v\n", err)
			return 2
		}
		fmt.Fprintln(stdout, string(data))
	} else if report.Passed {
		fmt.Fprintf(stdout, "Corpus verified: %s\n", corpusDir)
		fmt.Fprintf(stdout, "  Cases:  %d\n", report.Summary.Cases)
		fmt.Fprintf(stdout, "  Checks: %d passed\n", report.Summary.PassedChecks)
	} else {
		fmt.Fprintf(stdout, "Corpus verification FAILED: %s\n", corpusDir)
		fmt.Fprintf(stdout, "  Checks: %d of %d failed\n", report.Summary.FailedChecks, report.Summary.TotalChecks)
		for _, c := range report.Checks {
			if !c.Passed {
				fmt.Fprintf(stdout, "  - [%s] %s: %s\n", c.CheckType, c.Case, c.Message)
			}
		}
	}

	if !report.Passed {
		return 1
	}

	if anchor {
		if err := anchorCorpus(ctx, store, logger); err != nil {
			fmt.Fprintf(stderr, "Error: anchoring corpus: %v\n", err)
			return 2
		}
	}
	return 0
}
