// Package netgroups implements the in-memory netgroup graph: named sets
// of hosts and nested netgroups, parsed from a flat text file and walked
// breadth-first at membership-test time.
package netgroups

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gluster/nfs-mountauthd/internal/logger"
)

// Host is one (hostname, user, domain) triple inside a netgroup. User and
// domain are optional; hostname is required. All three fields are
// stripped of surrounding whitespace at parse time.
type Host struct {
	Hostname string
	User     string
	Domain   string
}

// Entry is one netgroup: a name plus a graph edge set, not a tree. When
// netgroup X references netgroup Y, X.SubGroups["y"] and the top-level
// File.Groups["y"] point at the *same* Entry — netgroups are shared by
// name, never copied, so a netgroup may legally appear under more than
// one parent and cycles (A references B which references A) are
// structurally possible and must not cause unbounded traversal.
type Entry struct {
	Name      string
	SubGroups map[string]*Entry
	Hosts     map[string]Host
}

func newEntry(name string) *Entry {
	return &Entry{
		Name:      name,
		SubGroups: make(map[string]*Entry),
		Hosts:     make(map[string]Host),
	}
}

// File is a parsed netgroups file: a filename and the top-level name →
// Entry map. Every Entry reachable from File.Groups, directly or via
// nested SubGroups, is also present at the top level — a netgroup
// referenced before its own definition line is seen gets a placeholder
// Entry here, later filled in when its definition line is reached.
type File struct {
	Filename string
	Groups   map[string]*Entry
}

// Parse reads path and builds a File. A malformed individual line, or a
// malformed token within a line, is skipped — parsing continues with the
// rest of the file. Parse only fails outright on an I/O error reading
// the file itself (the internal-categories "alloc-failure" case of the
// original has no analog under Go's memory model; a file-level parse
// abort here means "could not read the file at all").
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open netgroups file %q: %w", path, err)
	}
	defer f.Close()

	return ParseReader(path, f)
}

// ParseReader parses netgroup definitions from r, labeling the resulting
// File with filename (used only for logging). Exposed
// separately from Parse so tests can build a File from an in-memory
// string without touching the filesystem.
func ParseReader(filename string, r io.Reader) (*File, error) {
	nf := &File{Filename: filename, Groups: make(map[string]*Entry)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isIgnoredLine(line) {
			continue
		}
		if err := parseLine(nf, line); err != nil {
			logger.Warn("netgroups: skipping malformed line",
				logger.Path(filename), "line", lineNo, logger.Err(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read netgroups file %q: %w", filename, err)
	}

	return nf, nil
}

func isIgnoredLine(line string) bool {
	if line == "" {
		return true
	}
	switch line[0] {
	case '#', ' ', '\t', '\n', 0:
		return true
	}
	return false
}

func parseLine(nf *File, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	parentName := fields[0]
	parent := nf.lookupOrCreate(parentName)

	if len(fields) == 1 {
		logger.Debug("netgroups: line declares netgroup with no members",
			"netgroup", parentName)
		return nil
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	tokens := tokenize(rest)

	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "@"):
			name := strings.TrimPrefix(tok, "@")
			if name == "" {
				continue
			}
			child := nf.lookupOrCreate(name)
			parent.SubGroups[name] = child
		case strings.HasPrefix(tok, "("):
			h, err := parseHostTriple(tok)
			if err != nil {
				// Malformed triple: skip this token only, keep parsing
				// the rest of the line.
				continue
			}
			parent.Hosts[h.Hostname] = h
		}
	}

	return nil
}

// tokenize splits the remainder of a line into whitespace-separated
// `@name` and `(h,u,d)` tokens. A host triple may not contain internal
// whitespace (spec §6), so splitting on Fields is safe for both forms.
func tokenize(s string) []string {
	return strings.Fields(s)
}

func (nf *File) lookupOrCreate(name string) *Entry {
	if e, ok := nf.Groups[name]; ok {
		return e
	}
	e := newEntry(name)
	nf.Groups[name] = e
	return e
}

// parseHostTriple parses a `(host,user,domain)` token. A triple with a
// comma-count other than 2 is rejected; each field is trimmed of
// surrounding whitespace. Internal whitespace anywhere in the token is
// also rejected per spec §6 ("no spaces anywhere in a host triple").
func parseHostTriple(tok string) (Host, error) {
	if !strings.HasPrefix(tok, "(") || !strings.HasSuffix(tok, ")") {
		return Host{}, fmt.Errorf("netgroup host triple missing parens: %q", tok)
	}
	if strings.ContainsAny(tok, " \t") {
		return Host{}, fmt.Errorf("netgroup host triple contains whitespace: %q", tok)
	}

	inner := tok[1 : len(tok)-1]
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return Host{}, fmt.Errorf("netgroup host triple must have 3 comma-separated fields: %q", tok)
	}

	h := Host{
		Hostname: strings.TrimSpace(parts[0]),
		User:     strings.TrimSpace(parts[1]),
		Domain:   strings.TrimSpace(parts[2]),
	}
	if h.Hostname == "" {
		return Host{}, fmt.Errorf("netgroup host triple missing hostname: %q", tok)
	}
	return h, nil
}

// Find returns the netgroup named name, or (nil, false) if no line of
// the file ever declared or referenced it. A name that only appears as
// an @reference, never as the first token of a line, is also found: its
// placeholder Entry is returned, with no hosts or subgroups.
func (nf *File) Find(name string) (*Entry, bool) {
	e, ok := nf.Groups[name]
	return e, ok
}

// Contains reports whether host is a member of netgroup name, expanding
// nested netgroups breadth-first. Cycles (name eventually referencing
// itself) are terminated by a visited set keyed on netgroup identity —
// each Entry pointer is visited at most once regardless of how many
// parents reference it.
func (nf *File) Contains(name, host string) bool {
	start, ok := nf.Groups[name]
	if !ok {
		return false
	}

	visited := make(map[*Entry]bool)
	queue := []*Entry{start}

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if visited[e] {
			continue
		}
		visited[e] = true

		if _, ok := e.Hosts[host]; ok {
			return true
		}
		for _, sub := range e.SubGroups {
			if !visited[sub] {
				queue = append(queue, sub)
			}
		}
	}

	return false
}
