package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bgricker/testbridge/internal/script"
)

// ErrNoTests indicates that no test scripts were found during discovery.
var ErrNoTests = errors.New("no tests discovered")

var testFileRegex = regexp.MustCompile(`^test`)

// UtilsName is the base name of the helper script shipped next to tests. It
// matches the test pattern but is never a test itself.
const UtilsName = "test_utils"

// Scripts returns test script paths. If explicit paths are provided they are
// validated and returned in the order given. Otherwise root is walked:
// hidden files and directories are skipped, and a file is a test when its
// name starts with "test" and it is either a known script type or
// executable. allFiles accepts every visible file instead. Walked results
// are sorted lexicographically.
func Scripts(root string, explicit []string, allFiles bool) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	known := make(map[string]struct{})
	for _, ext := range script.Extensions() {
		known[ext] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && hidden(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(name) || strings.TrimSuffix(name, filepath.Ext(name)) == UtilsName {
			return nil
		}
		if !allFiles && !isTestFile(d, known) {
			return nil
		}
		paths = append(paths, mustRelOrClean(root, path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	if len(paths) == 0 {
		return nil, ErrNoTests
	}
	sort.Strings(paths)
	return paths, nil
}

func isTestFile(d fs.DirEntry, known map[string]struct{}) bool {
	if !d.Type().IsRegular() || !testFileRegex.MatchString(d.Name()) {
		return false
	}
	if _, ok := known[strings.ToLower(filepath.Ext(d.Name()))]; ok {
		return true
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ReadList reads a test list: one path per line, blank lines and lines
// starting with # ignored.
func ReadList(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test list: %w", err)
	}
	return paths, nil
}

// ReadListFile reads a test list from path; "-" reads stdin.
func ReadListFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return ReadList(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test list %q: %w", path, err)
	}
	defer f.Close()
	return ReadList(f)
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	for _, input := range explicit {
		cleaned := input
		if !filepath.IsAbs(cleaned) {
			cleaned = filepath.Join(root, cleaned)
		}
		info, err := os.Stat(cleaned)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("test %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("test %q is a directory", input)
		}
		rel := mustRelOrClean(root, cleaned)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}
	if len(resolved) == 0 {
		return nil, ErrNoTests
	}
	return resolved, nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
