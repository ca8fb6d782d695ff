package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/network"
)

// Document is the structured form of a puzzle text.
type Document struct {
	Instructions instructions.Sequence
	Records      []domain.Record
}

// Network builds the immutable network described by the document.
func (d *Document) Network() (*network.Network, error) {
	return network.New(d.Records)
}

// Parser converts raw puzzle text into a Document.
//
// The first non-blank line holds the instruction characters. Every following
// non-blank line is a record of the form "NODE = (LEFT, RIGHT)".
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseString is a convenience wrapper around Parse.
func (p *Parser) ParseString(s string) (*Document, error) {
	return p.Parse(strings.NewReader(s))
}

// Parse reads the whole input. It fails on the first malformed line.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	haveInstructions := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !haveInstructions {
			seq, err := instructions.Parse(line)
			if err != nil {
				return nil, &domain.RecordError{Line: lineNo, Text: line, Err: err}
			}
			doc.Instructions = seq
			haveInstructions = true
			continue
		}

		rec, err := ParseRecord(line)
		if err != nil {
			return nil, &domain.RecordError{Line: lineNo, Text: line, Err: err}
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if !haveInstructions {
		return nil, domain.ErrEmptyInstructionSequence
	}
	return doc, nil
}

// ParseRecord decodes a single "NODE = (LEFT, RIGHT)" line.
func ParseRecord(line string) (domain.Record, error) {
	id, rest, ok := strings.Cut(line, "=")
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: missing '='", domain.ErrMalformedRecord)
	}
	id = strings.TrimSpace(id)
	if !isIdentifier(id) {
		return domain.Record{}, fmt.Errorf("%w: invalid node identifier %q", domain.ErrMalformedRecord, id)
	}

	rest = strings.TrimSpace(rest)
	inner, ok := strings.CutPrefix(rest, "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: successors must be enclosed in parentheses", domain.ErrMalformedRecord)
	}

	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return domain.Record{}, fmt.Errorf("%w: expected 2 successors, got %d", domain.ErrMalformedRecord, len(parts))
	}
	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if !isIdentifier(left) || !isIdentifier(right) {
		return domain.Record{}, fmt.Errorf("%w: invalid successor in %q", domain.ErrMalformedRecord, inner)
	}

	return domain.Record{ID: domain.NodeID(id), Left: domain.NodeID(left), Right: domain.NodeID(right)}, nil
}

func isIdentifier(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t=(),")
}
