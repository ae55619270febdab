package response_comparer

import (
	"fmt"
	"httpcomparer/internal/response_fetcher"
	"strings"
)

type Mode string

const (
	ModeJSON  Mode = "json"
	ModeText  Mode = "text"
	ModeError Mode = "error"
)

type ResponseComparerInterface interface {
	Compare(resultA response_fetcher.FetchResult, resultB response_fetcher.FetchResult) (Comparison, error)
}

// Comparison is the verdict for one pair of responses. ContentA and ContentB
// hold what should be persisted when the responses differ: the canonical JSON
// in json mode and the raw bodies in text mode. They are empty in error mode.
type Comparison struct {
	Equal    bool
	Mode     Mode
	Diff     string
	ContentA string
	ContentB string
}

// ShouldPersist reports whether the two contents need writing to disk.
func (c Comparison) ShouldPersist() bool {
	return !c.Equal && c.Mode != ModeError
}

type ResponseComparer struct{}

// Compare classifies two fetch results. Transport errors win over everything
// else. Responses are compared as canonical JSON only when both bodies parsed
// as JSON, otherwise the raw bodies are compared byte for byte.
func (*ResponseComparer) Compare(resultA response_fetcher.FetchResult, resultB response_fetcher.FetchResult) (Comparison, error) {
	if resultA.Failed() || resultB.Failed() {
		return compareErrors(resultA, resultB), nil
	}

	if resultA.HasJSON && resultB.HasJSON {
		return compareJSON(resultA.JSON, resultB.JSON)
	}

	return compareText(resultA.Body, resultB.Body), nil
}

func compareErrors(resultA response_fetcher.FetchResult, resultB response_fetcher.FetchResult) Comparison {
	var lines []string
	if resultA.Failed() {
		lines = append(lines, fmt.Sprintf("Host1 error: %s", resultA.Error))
	}
	if resultB.Failed() {
		lines = append(lines, fmt.Sprintf("Host2 error: %s", resultB.Error))
	}
	if resultA.StatusCode != resultB.StatusCode {
		lines = append(lines, fmt.Sprintf("Status codes differ: %d vs %d", resultA.StatusCode, resultB.StatusCode))
	}

	return Comparison{
		Equal: false,
		Mode:  ModeError,
		Diff:  strings.Join(lines, "\n"),
	}
}

func compareJSON(valueA any, valueB any) (Comparison, error) {
	canonicalA, err := CanonicalJSON(valueA)
	if err != nil {
		return Comparison{}, fmt.Errorf("failed to canonicalise host1 JSON: %w", err)
	}

	canonicalB, err := CanonicalJSON(valueB)
	if err != nil {
		return Comparison{}, fmt.Errorf("failed to canonicalise host2 JSON: %w", err)
	}

	if canonicalA == canonicalB {
		return Comparison{Equal: true, Mode: ModeJSON}, nil
	}

	return Comparison{
		Equal:    false,
		Mode:     ModeJSON,
		Diff:     UnifiedDiff(canonicalA, canonicalB, "host1.json", "host2.json"),
		ContentA: canonicalA,
		ContentB: canonicalB,
	}, nil
}

func compareText(bodyA string, bodyB string) Comparison {
	if bodyA == bodyB {
		return Comparison{Equal: true, Mode: ModeText}
	}

	return Comparison{
		Equal:    false,
		Mode:     ModeText,
		Diff:     UnifiedDiff(bodyA, bodyB, "host1.txt", "host2.txt"),
		ContentA: bodyA,
		ContentB: bodyB,
	}
}
