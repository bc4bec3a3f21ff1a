package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/Mindburn-Labs/ucf/core/pkg/config"

	_ "github.com/lib/pq" // Postgres driver
)

// version is the CLI release. The generator stamps it into corpus manifests
// and the verifier gates on the same major.
const version = "1.0.0"

var buildVersion = semver.MustParse(version)

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = success
//	1 = verification failure
//	2 = usage or configuration error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "generate", "gen":
		return runGenerateCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "sync":
		return runSyncCmd(args[2:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "ucf %s\n", buildVersion)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func newLogger(w io.Writer) *slog.Logger {
	cfg := config.Load()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "ucf %s - canonical fixture corpus tooling\n", version)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  ucf <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "CORPUS:")
	fmt.Fprintln(w, "  generate     Write the golden fixture corpus (-out, -profile)")
	fmt.Fprintln(w, "  verify       Verify a corpus against the registry (-corpus, -report, -json, -anchor)")
	fmt.Fprintln(w, "  sync         Push or pull a corpus to a remote store (-dir, -push, -pull, -rps)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "UTILITIES:")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show this help")
	fmt.Fprintln(w, "")
}
