package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParsedDocument is the parser's view of one document: its declared name and
// the import reference strings in declaration order.
type ParsedDocument struct {
	Name    string
	Imports []string
}

// Parser turns raw adapter content into a document skeleton. Parse failures
// are contained by the resolver the same way read failures are.
type Parser interface {
	Parse(content []byte) (*ParsedDocument, error)
}

// NewJSONParser returns the default parser for the corpus document JSON shape:
//
//	{"documentName": "...", "imports": [{"corpusPath": "..."}]}
//
// Unknown top-level fields are ignored so richer document content passes
// through untouched.
func NewJSONParser() Parser {
	return jsonParser{}
}

type jsonParser struct{}

type jsonDocument struct {
	DocumentName string       `json:"documentName"`
	Imports      []jsonImport `json:"imports"`
}

type jsonImport struct {
	CorpusPath string `json:"corpusPath"`
}

func (jsonParser) Parse(content []byte) (*ParsedDocument, error) {
	var raw jsonDocument
	if err := json.NewDecoder(bytes.NewReader(content)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	imports := make([]string, 0, len(raw.Imports))
	for idx, imp := range raw.Imports {
		if imp.CorpusPath == "" {
			return nil, fmt.Errorf("import %d has no corpusPath", idx)
		}
		imports = append(imports, imp.CorpusPath)
	}

	return &ParsedDocument{Name: raw.DocumentName, Imports: imports}, nil
}
