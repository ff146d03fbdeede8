package exports

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/lineparser"
)

const (
	maxHostLen  = 256
	maxNetgroup = 128
)

// Parse reads path and builds a File (spec §4.C). knownVolumes, when
// non-nil, constrains which directory lines are accepted: a line whose
// first path component doesn't name a known volume is silently dropped.
// Pass nil to accept every syntactically valid line.
func Parse(path string, knownVolumes map[string]bool) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exports file %q: %w", path, err)
	}
	defer f.Close()

	return ParseReader(path, f, knownVolumes)
}

// ParseReader parses exports-file content from r, labeling the resulting
// File with filename.
func ParseReader(filename string, r io.Reader, knownVolumes map[string]bool) (*File, error) {
	ef := newFile(filename)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		dir, err := parseLine(line, knownVolumes)
		if err != nil {
			logger.Warn("exports: skipping malformed line",
				logger.Path(filename), "line", lineNo, logger.Err(err))
			continue
		}
		if dir == nil {
			// Dropped by the volume cross-check, not an error.
			continue
		}
		ef.Insert(dir)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exports file %q: %w", filename, err)
	}

	return ef, nil
}

func parseLine(line string, knownVolumes map[string]bool) (*Dir, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty line")
	}

	path := fields[0]
	if err := validatePathLen(path); err != nil {
		return nil, err
	}

	normalized := normalizePath(path)
	if knownVolumes != nil {
		first := strings.SplitN(strings.TrimPrefix(normalized, "/"), "/", 2)[0]
		if !knownVolumes[first] {
			return nil, nil
		}
	}

	dir := newDir(normalized)
	rest := strings.TrimSpace(strings.TrimPrefix(line, path))

	c := lineparser.Entry.Cursor(rest)
	for {
		tok, ok := c.Next()
		if !ok {
			break
		}
		if err := addEntry(dir, tok); err != nil {
			logger.Warn("exports: skipping malformed entry", "entry", tok, logger.Err(err))
		}
	}

	return dir, nil
}

func addEntry(dir *Dir, tok string) error {
	name, optStr, _ := strings.Cut(tok, "(")
	optStr = strings.TrimSuffix(optStr, ")")

	if strings.HasPrefix(name, "@") {
		ngName := strings.TrimPrefix(name, "@")
		if ngName == "" {
			return fmt.Errorf("empty netgroup reference: %q", tok)
		}
		if len(ngName) > maxNetgroup {
			return fmt.Errorf("netgroup name exceeds %d bytes: %q", maxNetgroup, ngName)
		}
		dir.Netgroups[ngName] = &Item{Name: ngName, Options: ParseOptions(optStr)}
		return nil
	}

	if name == "" {
		return fmt.Errorf("empty host entry: %q", tok)
	}
	if len(name) > maxHostLen {
		return fmt.Errorf("host entry exceeds %d bytes: %q", maxHostLen, name)
	}
	dir.Hosts[name] = &Item{Name: name, Options: ParseOptions(optStr)}
	return nil
}
