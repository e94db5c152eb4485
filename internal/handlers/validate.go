package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/csg33k/paytax/internal/engine"
)

//go:embed schema/payroll_request.schema.json
var requestSchema string

const requestSchemaURL = "https://paytax.local/schema/payroll_request.schema.json"

func compileRequestSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(requestSchemaURL, strings.NewReader(requestSchema)); err != nil {
		return nil, fmt.Errorf("request schema load failed: %w", err)
	}
	compiled, err := c.Compile(requestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("request schema compile failed: %w", err)
	}
	return compiled, nil
}

// checkRequest validates one raw JSON request object against the schema.
// Failures come back as *engine.ValidationError naming the offending field.
func (h *Handler) checkRequest(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return &engine.ValidationError{Field: "body", Reason: "is not valid JSON"}
	}
	err := h.schema.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &engine.ValidationError{Field: "body", Reason: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		field = "body"
	}
	return &engine.ValidationError{Field: field, Reason: leaf.Message}
}
