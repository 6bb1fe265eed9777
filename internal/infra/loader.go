package infra

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chronos_client/internal/domain"
)

// FileLoader reads the symbol universe from a text file:
// one symbol per line, first whitespace-separated token, '#' starts a comment.
type FileLoader struct {
	FileName string
}

// NewFileLoader creates a loader for <homeDir>/<dataDir>/fileName.
func NewFileLoader(fileName string) *FileLoader {
	if fileName == "" {
		fileName = DefaultSymbolsFile
	}
	return &FileLoader{FileName: fileName}
}

// LoadSymbols returns at most maxCount symbols in file order.
func (l *FileLoader) LoadSymbols(homeDir, dataDir string, maxCount int) ([]string, error) {
	path := filepath.Join(homeDir, dataDir, l.FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	symbols := make([]string, 0, maxCount)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(symbols) < maxCount {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, strings.Fields(line)[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrSourceUnavailable, path, err)
	}

	return symbols, nil
}
