package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parsers/csv"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parsers/ofx"
)

// Registry holds all registered parsers
type Registry struct {
	parsers []parser.Parser
	// fallback handles files no parser claims; with the lenient CSV
	// parser as fallback an unrecognized file yields an empty statement
	// instead of an error
	fallback parser.Parser
}

// New creates a registry with all built-in parsers
func New() *Registry {
	csvParser := csv.NewParser()
	return &Registry{
		parsers: []parser.Parser{
			ofx.NewParser(),
			csvParser,
		},
		fallback: csvParser,
	}
}

// Register adds a custom parser (for extensibility)
func (r *Registry) Register(p parser.Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser returns the best parser for this file.
// Reads first 512 bytes for format detection via header inspection.
// This is sufficient to detect magic numbers and headers in common financial formats (OFX, QFX, CSV).
func (r *Registry) FindParser(path string) (parser.Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// EOF is OK - some statement files (especially CSV or minimal test files) may be < 512 bytes.
	// Parsers receive whatever was read (0 to 512 bytes) and should handle variable header sizes.
	return r.FindParserForContent(path, header[:n]), nil
}

// FindParserForContent selects a parser from a file name and the first bytes
// of its content. Used directly for uploads that never touch disk. Always
// resolves: unclaimed files fall through to the fallback parser.
func (r *Registry) FindParserForContent(name string, header []byte) parser.Parser {
	for _, p := range r.parsers {
		if p.CanParse(name, header) {
			return p
		}
	}
	return r.fallback
}

// ListParsers returns all registered parsers
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
