package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"artd/internal/common/fsutil"
	"artd/pkg/types"
)

// ListDir scans dir for *.prompts files and returns them sorted by name.
// Path is the absolute file path; Name drops the extension.
func ListDir(dir string) ([]types.PromptFile, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	files := []types.PromptFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !IsPromptFile(name) {
			continue
		}
		files = append(files, types.PromptFile{Name: DisplayName(name), Path: filepath.Join(abs, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// IsPromptFile reports whether name carries the prompt file extension.
func IsPromptFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}

// DisplayName returns the base name of path without the prompt extension.
func DisplayName(path string) string {
	name := filepath.Base(path)
	if IsPromptFile(name) {
		return name[:len(name)-len(Extension)]
	}
	return name
}
