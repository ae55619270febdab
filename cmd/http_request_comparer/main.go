package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCodeError is the exit code for a run that could not complete.
const exitCodeError = 2

func main() {
	exitCode := 0

	rootCmd := newRootCmd(&exitCode)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeError)
	}

	os.Exit(exitCode)
}

func newRootCmd(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http_request_comparer [base_url_1] [base_url_2] [paths_file]",
		Short: "Compare HTTP GET responses between two hosts for a list of paths",
		Long: "http_request_comparer requests every path in the paths file from both base URLs at the same\n" +
			"moment and reports whether the responses match. Differing responses are written to the\n" +
			"output directory. Arguments not given fall back to BASE_URL_1, BASE_URL_2 and PATHS_FILE.",
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runCompare(cmd, args)
			*exitCode = code
			return err
		},
	}

	f := cmd.Flags()
	f.Float64("timeout", 20, "Request timeout in seconds")
	f.Float64("join-grace", 5, "Seconds to wait past the timeout for a request to report back")
	f.String("out-dir", ".", "Directory to write differing responses to")
	f.StringArray("param", nil, "Query parameter key=value added to every request (repeatable)")
	f.StringArray("header", nil, `Header "Name: value" sent with every request (repeatable)`)

	return cmd
}
