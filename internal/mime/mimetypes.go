package mime

import (
	"fmt"
	"mime"
	"path/filepath"
	"sync"
)

const defaultMimeType = "application/octet-stream"

var artifactMimeTypes = map[string]string{
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
}

var loadOnce = sync.OnceValue(LoadArtifactMimeTypes)

// LoadArtifactMimeTypes registers the types of the files written for
// differing responses, so they do not depend on the host's mime.types.
func LoadArtifactMimeTypes() error {
	for ext, typ := range artifactMimeTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			return fmt.Errorf("error adding mime type %s with extension %s: %w", typ, ext, err)
		}
	}
	return nil
}

// TypeForFile returns the content type for filePath by extension.
func TypeForFile(filePath string) (string, error) {
	if err := loadOnce(); err != nil {
		return "", err
	}

	typ := mime.TypeByExtension(filepath.Ext(filePath))
	if typ == "" {
		return defaultMimeType, nil
	}
	return typ, nil
}
