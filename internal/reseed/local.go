package reseed

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// LocalFiles lists the files under p keyed by slash-separated path relative
// to p's parent directory. A regular file yields a single entry keyed by its
// name. Symbolic links are followed.
func LocalFiles(p string) (map[string]int64, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	files := make(map[string]int64)
	name := filepath.Base(abs)
	if !info.IsDir() {
		files[name] = info.Size()
		return files, nil
	}
	visited := make(map[string]bool)
	if err := walk(abs, name, files, visited); err != nil {
		return nil, err
	}
	return files, nil
}

func walk(dir, rel string, files map[string]int64, visited map[string]bool) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if visited[real] {
		return nil
	}
	visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		key := path.Join(rel, entry.Name())
		info, err := os.Stat(full)
		if err != nil {
			// Dangling link.
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if info.IsDir() {
			if err := walk(full, key, files, visited); err != nil {
				return err
			}
			continue
		}
		files[key] = info.Size()
	}
	return nil
}
