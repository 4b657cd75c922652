package parser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sokinpui/patchcheck/model"
)

//go:embed patch.schema.json
var patchSchema string

var (
	schemaOnce   sync.Once
	schemaLoaded *gojsonschema.Schema
	schemaErr    error
)

// SchemaError lists why a JSON document does not describe valid patches.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return "patch document failed schema validation"
	}
	return "patch document failed schema validation: " + strings.Join(e.Issues, "; ")
}

// document accepts either {"patches": [...]} or a single patch object.
type document struct {
	Patches []model.Patch `json:"patches"`
	model.Patch
}

// ParseJSON decodes patches from their JSON form after validating the
// document against the embedded schema.
func ParseJSON(data []byte) ([]model.Patch, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode patch document: %w", err)
	}

	patches := doc.Patches
	if len(doc.Changes) > 0 {
		patches = append(patches, doc.Patch)
	}
	for _, patch := range patches {
		for _, change := range patch.Changes {
			if err := change.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return patches, nil
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaLoaded, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(patchSchema))
	})
	return schemaLoaded, schemaErr
}

func validateDocument(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load patch schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to read patch document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &SchemaError{Issues: issues}
}
