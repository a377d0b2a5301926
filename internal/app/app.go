package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "group":
		return runGroup(args[1:])
	case "merge":
		return runMerge(args[1:])
	case "summaries":
		return runSummaries(args[1:])
	case "stories":
		return runStories(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "pulse CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  pulse <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health     Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  ingest     Run one full ingestion pipeline pass")
	fmt.Fprintln(os.Stderr, "  group      Bucket ungrouped articles into stories")
	fmt.Fprintln(os.Stderr, "  merge      Merge near-duplicate stories")
	fmt.Fprintln(os.Stderr, "  summaries  Refresh story previews that need it")
	fmt.Fprintln(os.Stderr, "  stories    Print the ranked homepage story set")
	fmt.Fprintln(os.Stderr, "  serve      Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"pulse <command> -h\" for command-specific flags.")
}
