package ladder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CodeFileName maps a character name to the file its export code is stored in.
func CodeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String() + ".txt"
}

// SaveCode writes one export code into dir and returns the file path.
func SaveCode(dir, name, code string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating code dir: %w", err)
	}
	path := filepath.Join(dir, CodeFileName(name))
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return "", fmt.Errorf("writing code for %s: %w", name, err)
	}
	return path, nil
}

// SaveCodes writes every code in codes (character name -> code) into dir.
func SaveCodes(dir string, codes map[string]string) ([]string, error) {
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := SaveCode(dir, name, codes[name])
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// CodeFiles expands args into code file paths. Directories contribute their
// *.txt files in name order; plain files are taken as given.
func CodeFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("code path %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.txt"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

// CodeLabel is the display label for a code file: its base name without extension.
func CodeLabel(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
