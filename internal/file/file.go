package file

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TimestampLayout sorts lexicographically in time order.
const TimestampLayout = "20060102-150405"

const rootPlaceholder = "root"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
var repeatedUnderscores = regexp.MustCompile(`_+`)

type ArtifactWriterInterface interface {
	WriteArtifacts(path string, contentA string, contentB string, isJSON bool) (string, string, error)
}

// ArtifactWriter persists the two sides of a differing response pair.
type ArtifactWriter struct {
	outDir string
	now    func() time.Time
}

func NewArtifactWriter(outDir string, now func() time.Time) *ArtifactWriter {
	if outDir == "" {
		outDir = "."
	}
	if now == nil {
		now = time.Now
	}

	return &ArtifactWriter{
		outDir: outDir,
		now:    now,
	}
}

// WriteArtifacts writes both contents verbatim and returns the two file paths.
// The output directory is created if it does not exist. Files for the same
// path written within the same second overwrite each other.
func (w *ArtifactWriter) WriteArtifacts(path string, contentA string, contentB string, isJSON bool) (string, string, error) {
	fileA, fileB := GenerateFilePaths(w.outDir, path, isJSON, w.now())

	err := os.MkdirAll(w.outDir, 0755)
	if err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", w.outDir, err)
	}

	if err := Save(fileA, []byte(contentA)); err != nil {
		return "", "", err
	}
	if err := Save(fileB, []byte(contentB)); err != nil {
		return "", "", err
	}

	return fileA, fileB, nil
}

func Save(filePath string, body []byte) error {
	err := os.WriteFile(filePath, body, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	return nil
}

// GenerateFilePaths returns the host1 and host2 artifact paths, named
// <timestamp>_<sanitized path>_host{1,2}.<json|txt>.
func GenerateFilePaths(outDir string, path string, isJSON bool, t time.Time) (string, string) {
	ext := "txt"
	if isJSON {
		ext = "json"
	}

	base := fmt.Sprintf("%s_%s", t.Format(TimestampLayout), SanitizePathForFilename(path))

	return filepath.Join(outDir, fmt.Sprintf("%s_host1.%s", base, ext)),
		filepath.Join(outDir, fmt.Sprintf("%s_host2.%s", base, ext))
}

// SanitizePathForFilename turns a request path into something safe to use in
// a filename.
func SanitizePathForFilename(path string) string {
	path = strings.TrimLeft(path, "/")
	sanitized := unsafeFilenameChars.ReplaceAllString(path, "_")
	sanitized = repeatedUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return rootPlaceholder
	}
	return sanitized
}
