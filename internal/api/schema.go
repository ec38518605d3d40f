// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// schemaKind identifies the expected shape of a response body.
type schemaKind int

const (
	schemaNone schemaKind = iota
	schemaEvents
	schemaExplanation
	schemaTimeline
	schemaTopIPs
	schemaUser
	schemaLogin
	schemaSignup
	schemaMessage
)

func (k schemaKind) String() string {
	switch k {
	case schemaEvents:
		return "events"
	case schemaExplanation:
		return "explanation"
	case schemaTimeline:
		return "timeline"
	case schemaTopIPs:
		return "top-ips"
	case schemaUser:
		return "user"
	case schemaLogin:
		return "login"
	case schemaSignup:
		return "signup"
	case schemaMessage:
		return "message"
	default:
		return "none"
	}
}

type obj = map[string]any

var (
	eventSchema = obj{
		"type":     "object",
		"required": []string{"event_id", "timestamp", "source_ip", "method", "url", "status_code", "attack_type", "is_successful"},
		"properties": obj{
			"event_id":      obj{"type": "string", "minLength": 1},
			"timestamp":     obj{"type": "string", "minLength": 1},
			"source_ip":     obj{"type": "string"},
			"method":        obj{"type": "string"},
			"url":           obj{"type": "string"},
			"status_code":   obj{"type": "integer"},
			"attack_type":   obj{"type": "string"},
			"is_successful": obj{"type": "boolean"},
			"user_agent":    obj{"type": []string{"string", "null"}},
			"payload":       obj{"type": []string{"string", "null"}},
			"response_size": obj{"type": []string{"integer", "null"}},
			"confidence":    obj{"type": []string{"number", "null"}},
		},
	}

	userSchema = obj{
		"type":     "object",
		"required": []string{"username"},
		"properties": obj{
			"username": obj{"type": "string", "minLength": 1},
		},
	}

	schemaDocs = map[schemaKind]obj{
		schemaEvents: {
			"type":  "array",
			"items": eventSchema,
		},
		schemaExplanation: {
			"type":     "object",
			"required": []string{"confidence", "rule_hits"},
			"properties": obj{
				"event_id":    obj{"type": "string"},
				"attack_type": obj{"type": "string"},
				"confidence":  obj{"type": "number", "minimum": 0, "maximum": 1},
				"rule_hits": obj{
					"type": "object",
					"additionalProperties": obj{
						"type":  "array",
						"items": obj{"type": "string"},
					},
				},
				"payload_snippet": obj{"type": []string{"string", "null"}},
				"factors": obj{
					"type":  "array",
					"items": obj{"type": "string"},
				},
				"source": obj{"enum": []string{"rule", "model"}},
			},
		},
		schemaTimeline: {
			"type": "array",
			"items": obj{
				"type":     "object",
				"required": []string{"time", "attempt", "success"},
				"properties": obj{
					"time":    obj{"type": "string"},
					"attempt": obj{"type": "integer", "minimum": 0},
					"success": obj{"type": "integer", "minimum": 0},
				},
			},
		},
		schemaTopIPs: {
			"type": "array",
			"items": obj{
				"type":     "object",
				"required": []string{"ip", "count"},
				"properties": obj{
					"ip":    obj{"type": "string", "minLength": 1},
					"count": obj{"type": "integer", "minimum": 0},
				},
			},
		},
		schemaUser: userSchema,
		schemaLogin: {
			"type":     "object",
			"required": []string{"access_token", "user"},
			"properties": obj{
				"access_token": obj{"type": "string", "minLength": 1},
				"token_type":   obj{"type": "string"},
				"user":         userSchema,
			},
		},
		// The created-user payload varies by deployment; only its type is checked.
		schemaSignup: {
			"type": "object",
			"properties": obj{
				"username": obj{"type": "string"},
			},
		},
		schemaMessage: {
			"type":     "object",
			"required": []string{"message"},
			"properties": obj{
				"message": obj{"type": "string"},
			},
		},
	}
)

var (
	compiledOnce    sync.Once
	compiledSchemas map[schemaKind]*gojsonschema.Schema
	compileErr      error
)

func compileSchemas() {
	compiledSchemas = make(map[schemaKind]*gojsonschema.Schema, len(schemaDocs))
	for kind, doc := range schemaDocs {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			compileErr = fmt.Errorf("compile %s schema: %w", kind, err)
			return
		}
		compiledSchemas[kind] = s
	}
}

// validateBody checks body against the schema for kind. It returns a plain
// error describing the first few violations; callers wrap it.
func validateBody(kind schemaKind, body []byte) error {
	if kind == schemaNone {
		return nil
	}
	compiledOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}

	result, err := compiledSchemas[kind].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%s body is not valid JSON: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for i, desc := range result.Errors() {
		if i == 3 {
			problems = append(problems, fmt.Sprintf("and %d more", len(result.Errors())-3))
			break
		}
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%s body failed validation: %s", kind, strings.Join(problems, "; "))
}
