// Package prompts reads prompt files and the directory that holds them.
//
// A prompt file is line oriented:
//
//	# comment
//	[config]
//	width = 512
//	repeat = yes
//
//	[prompts]
//	a lighthouse at dusk
//	a harbor in fog
//
//	[prompts]
//	oil painting
//	watercolor
//
// Every [prompts] section contributes one fragment to each job. Jobs are the
// cartesian product of the sections in file order, the first section being
// the outermost loop.
package prompts

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Extension is the suffix of prompt files in the prompts directory.
const Extension = ".prompts"

// MaxCombinations bounds the number of descriptors one file may produce.
const MaxCombinations = 100000

// Option is one key/value pair from the [config] section.
type Option struct {
	Key   string
	Value string
}

// Descriptor is a single job derived from a prompt file.
type Descriptor struct {
	// Index is the position of the descriptor in source order, starting at 0.
	Index   int
	Prompt  string
	Options []Option
}

// OptionsText renders the options as "k=v, k=v" in file order.
func (d Descriptor) OptionsText() string {
	if len(d.Options) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		parts = append(parts, o.Key+"="+o.Value)
	}
	return strings.Join(parts, ", ")
}

// File is a parsed prompt file.
type File struct {
	Path        string
	Repeat      bool
	Options     []Option
	Descriptors []Descriptor
}

// ParseError reports malformed prompt file content.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}

// ParseFile reads and parses the prompt file at path. A missing file yields
// an error satisfying errors.Is(err, os.ErrNotExist).
func ParseFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse parses prompt file content. path is only used in error messages.
func Parse(path string, content []byte) (*File, error) {
	const (
		sectionNone = iota
		sectionConfig
		sectionPrompts
	)
	f := &File{Path: path}
	var groups [][]string
	section := sectionNone
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1])); name {
			case "config":
				section = sectionConfig
			case "prompts":
				section = sectionPrompts
				groups = append(groups, nil)
			default:
				return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("unknown section %q", name)}
			}
			continue
		}
		switch section {
		case sectionNone:
			return nil, &ParseError{Path: path, Line: lineNo, Msg: "content before first section header"}
		case sectionConfig:
			k, v, ok := strings.Cut(line, "=")
			k = strings.ToLower(strings.TrimSpace(k))
			if !ok || k == "" {
				return nil, &ParseError{Path: path, Line: lineNo, Msg: "expected key = value"}
			}
			v = strings.TrimSpace(v)
			if k == "repeat" {
				r, err := parseBool(v)
				if err != nil {
					return nil, &ParseError{Path: path, Line: lineNo, Msg: err.Error()}
				}
				f.Repeat = r
				continue
			}
			f.Options = setOption(f.Options, k, v)
		case sectionPrompts:
			groups[len(groups)-1] = append(groups[len(groups)-1], line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: lineNo + 1, Msg: err.Error()}
	}
	if len(groups) == 0 {
		return nil, &ParseError{Path: path, Msg: "no [prompts] section"}
	}
	total := 1
	for i, g := range groups {
		if len(g) == 0 {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("[prompts] section %d is empty", i+1)}
		}
		total *= len(g)
		if total > MaxCombinations {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("more than %d prompt combinations", MaxCombinations)}
		}
	}
	f.Descriptors = combine(groups, f.Options, total)
	return f, nil
}

// combine expands groups into their cartesian product, first group outermost.
func combine(groups [][]string, opts []Option, total int) []Descriptor {
	out := make([]Descriptor, 0, total)
	idx := make([]int, len(groups))
	parts := make([]string, len(groups))
	for n := 0; n < total; n++ {
		for g := range groups {
			parts[g] = groups[g][idx[g]]
		}
		out = append(out, Descriptor{Index: n, Prompt: strings.Join(parts, ", "), Options: opts})
		for g := len(groups) - 1; g >= 0; g-- {
			idx[g]++
			if idx[g] < len(groups[g]) {
				break
			}
			idx[g] = 0
		}
	}
	return out
}

// setOption overwrites an existing key so later lines win, keeping first position.
func setOption(opts []Option, k, v string) []Option {
	for i := range opts {
		if opts[i].Key == k {
			opts[i].Value = v
			return opts
		}
	}
	return append(opts, Option{Key: k, Value: v})
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on", "true", "1":
		return true, nil
	case "no", "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
