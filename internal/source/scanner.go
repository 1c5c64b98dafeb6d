package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks dir and discovers all JSONL export files.
//
// Files directly under dir carry no project hint; files one level down take
// the directory name as their project:
//
//	inbox/march.jsonl            -> project from each record
//	inbox/website/march.jsonl    -> project "website" unless the record names one
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || !IsExportFile(path) {
			return nil
		}

		rel, _ := filepath.Rel(dir, path)
		parts := strings.Split(rel, string(filepath.Separator))

		df := DiscoveredFile{Path: path}
		if len(parts) >= 2 {
			df.Project = parts[0]
		}
		files = append(files, df)
		return nil
	})

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, err
}

// IsExportFile reports whether path looks like an expense export.
// Hidden and partially written files are skipped.
func IsExportFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Ext(name) == ".jsonl"
}
