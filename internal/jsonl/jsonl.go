// Package jsonl reads character records in bulk, one JSON object per line.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/aigent/pkg/aigent/store"
)

// maxLine bounds a single record; a user with many long posts still fits.
const maxLine = 16 << 20

// Record is one line of a batch file: a character plus the handle it is
// stored under.
type Record struct {
	Handle    string
	Character store.Character
}

// LoadCharacters reads a JSONL file of character records. Each line is a
// character object with an extra "handle" field. Blank lines are ignored;
// malformed lines and lines with an invalid handle are skipped with a
// warning.
func LoadCharacters(path string, logger *slog.Logger) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadCharacters(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadCharacters is LoadCharacters over an arbitrary reader.
func ReadCharacters(r io.Reader, logger *slog.Logger) ([]Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var head struct {
			Handle string `json:"handle"`
		}
		c, err := store.DecodeCharacter([]byte(text))
		if err == nil {
			_ = json.Unmarshal([]byte(text), &head)
			err = store.ValidateHandle(head.Handle)
		}
		if err != nil {
			logger.Warn("skipping malformed record", "line", line, "error", err)
			continue
		}
		records = append(records, Record{Handle: head.Handle, Character: c})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}
	return records, nil
}
