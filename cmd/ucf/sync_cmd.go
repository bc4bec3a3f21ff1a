package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
)

// runSyncCmd implements `ucf sync`: it mirrors a local corpus directory to
// the remote store named by the UCF_CORPUS_* environment (push), or fetches
// and checksum-verifies the remote corpus into the directory (pull).
func runSyncCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sync", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		dir  string
		push bool
		pull bool
		rps  float64
	)
	cmd.StringVar(&dir, "dir", "", "Local corpus directory (REQUIRED)")
	cmd.BoolVar(&push, "push", false, "Copy the local corpus to the remote store")
	cmd.BoolVar(&pull, "pull", false, "Fetch the remote corpus into the local directory")
	cmd.Float64Var(&rps, "rps", 32, "Object transfers per second")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if dir == "" {
		fmt.Fprintln(stderr, "Error: -dir is required")
		cmd.Usage()
		return 2
	}
	if push == pull {
		fmt.Fprintln(stderr, "Error: exactly one of -push or -pull is required")
		cmd.Usage()
		return 2
	}
	if rps <= 0 {
		fmt.Fprintln(stderr, "Error: -rps must be positive")
		return 2
	}

	ctx := context.Background()
	logger := newLogger(stderr)

	local, err := corpus.NewFileStore(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	remote, err := corpus.NewStoreFromEnv(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: remote store: %v\n", err)
		return 2
	}

	syncer := corpus.NewSyncer(rate.Limit(rps), 1)
	if push {
		n, err := syncer.Push(ctx, local, remote, "")
		if err != nil {
			fmt.Fprintf(stderr, "Error: push failed after %d objects: %v\n", n, err)
			return 2
		}
		logger.Info("corpus pushed", "dir", dir, "objects", n)
		fmt.Fprintf(stdout, "Pushed %d objects from %s\n", n, dir)
		return 0
	}

	n, err := syncer.Pull(ctx, remote, local)
	if err != nil {
		fmt.Fprintf(stderr, "Error: pull failed after %d objects: %v\n", n, err)
		return 2
	}
	logger.Info("corpus pulled", "dir", dir, "objects", n)
	fmt.Fprintf(stdout, "Pulled %d objects into %s\n", n, dir)
	return 0
}
