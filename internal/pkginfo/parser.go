package pkginfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_-]*):[ \t]?(.*)$`)

// continuationIndent is what the emitter prefixes to folded value lines.
const continuationIndent = "        "

// Parser reads header-style metadata records (PKG-INFO, METADATA, WHEEL).
type Parser struct {
	r io.Reader
}

// NewParser creates a new metadata parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse reads headers up to the first blank line; the rest is the body.
func (p *Parser) Parse() (*Metadata, error) {
	md := New()
	var current *Header
	inBody := false
	var body strings.Builder

	scanner := bufio.NewScanner(p.r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		lineNo++

		if inBody {
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		// Blank line ends the header block
		if line == "" {
			inBody = true
			continue
		}

		// Folded value
		if line[0] == ' ' || line[0] == '\t' {
			if current == nil {
				return nil, fmt.Errorf("line %d: continuation without header", lineNo)
			}
			cont := strings.TrimPrefix(line, continuationIndent)
			if cont == line {
				cont = strings.TrimLeft(line, " \t")
			}
			current.Value += "\n" + cont
			continue
		}

		matches := headerRe.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("line %d: malformed header %q", lineNo, line)
		}
		if current != nil {
			md.Headers = append(md.Headers, *current)
		}
		current = &Header{Key: matches[1], Value: strings.TrimRight(matches[2], " \t")}
	}

	// Don't forget the last header
	if current != nil {
		md.Headers = append(md.Headers, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	md.Body = body.String()
	return md, nil
}

// ReadFile parses the metadata record stored at path.
func ReadFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return md, nil
}
