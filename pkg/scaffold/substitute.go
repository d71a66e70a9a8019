package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// textSuffixes decide which files get token substitution. Matching is on
// the end of the file name, so ".env" matches both ".env" and "prod.env",
// and ".example" matches ".env.example".
var textSuffixes = []string{
	".js", ".jsx", ".ts", ".tsx", ".json", ".md", ".txt",
	".html", ".css", ".scss", ".yaml", ".yml", ".toml",
	".sh", ".env", ".example", ".prisma", ".sql",
}

// IsTextFile reports whether a file name is eligible for substitution.
func IsTextFile(name string) bool {
	for _, suffix := range textSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Variables maps placeholder keys (without braces) to values:
// {"PROJECT_NAME": "Acme"} replaces "{{PROJECT_NAME}}".
type Variables map[string]string

// Token returns the placeholder form of a key.
func Token(key string) string {
	return "{{" + key + "}}"
}

// Replacer builds a single-pass replacer over every token. A value that
// itself contains a token is written verbatim, never expanded again.
func (v Variables) Replacer() *strings.Replacer {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, Token(k), v[k])
	}
	return strings.NewReplacer(pairs...)
}

// SubstituteStats summarizes a Substitute run.
type SubstituteStats struct {
	Scanned   int
	Rewritten int
	// Skipped lists text-named files that were left alone because their
	// content is binary (NUL bytes or invalid UTF-8).
	Skipped []string
}

// Substitute walks root and replaces placeholder tokens in every text file.
// Artifact directories are not descended into. Files without any token
// are not rewritten.
func Substitute(root string, vars Variables) (SubstituteStats, error) {
	var stats SubstituteStats
	replacer := vars.Replacer()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && IsArtifactDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsTextFile(d.Name()) {
			return nil
		}

		stats.Scanned++
		rewritten, err := substituteFile(path, replacer)
		if err != nil {
			if errors.Is(err, errBinaryContent) {
				rel, _ := filepath.Rel(root, path)
				stats.Skipped = append(stats.Skipped, filepath.ToSlash(rel))
				return nil
			}
			return err
		}
		if rewritten {
			stats.Rewritten++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to substitute variables: %w", err)
	}

	return stats, nil
}

var errBinaryContent = errors.New("binary content")

func substituteFile(path string, replacer *strings.Replacer) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return false, errBinaryContent
	}

	original := string(content)
	replaced := replacer.Replace(original)
	if replaced == original {
		return false, nil
	}

	// WriteFile keeps the mode of an existing file.
	if err := os.WriteFile(path, []byte(replaced), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
