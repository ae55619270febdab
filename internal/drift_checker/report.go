package drift_checker

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport prints one block per outcome: a status line, then for differing
// pairs the diff and the paths of any written artifacts. Blocks are separated
// by a blank line.
func WriteReport(w io.Writer, outcomes []CompareOutcome) error {
	for _, o := range outcomes {
		if err := writeOutcome(w, o); err != nil {
			return err
		}
	}

	return nil
}

func writeOutcome(w io.Writer, o CompareOutcome) error {
	status := "OK"
	if !o.Equal {
		status = "DIFF"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s (%s)\n", status, o.Path, strings.ToUpper(string(o.Mode)))

	if !o.Equal {
		if o.Diff != "" {
			sb.WriteString(o.Diff)
			sb.WriteString("\n")
		}
		if o.HasArtifacts() {
			fmt.Fprintf(&sb, "Written differing responses to:\n  %s\n  %s\n", o.File1, o.File2)
		}
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// ExitCode is 0 when every pair matched and 1 otherwise.
func ExitCode(outcomes []CompareOutcome) int {
	for _, o := range outcomes {
		if !o.Equal {
			return 1
		}
	}
	return 0
}
