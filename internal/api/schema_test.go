// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name  string
		kind  schemaKind
		body  string
		valid bool
	}{
		{"no schema", schemaNone, `not json`, true},
		{"empty event list", schemaEvents, `[]`, true},
		{"event missing id", schemaEvents, `[{"timestamp":"2024-01-01T00:00:00","source_ip":"1.1.1.1","method":"GET","url":"/","status_code":200,"attack_type":"none","is_successful":false}]`, false},
		{"event status as string", schemaEvents, `[{"event_id":"e","timestamp":"2024-01-01T00:00:00","source_ip":"1.1.1.1","method":"GET","url":"/","status_code":"200","attack_type":"none","is_successful":false}]`, false},
		{"events not a list", schemaEvents, `{"events":[]}`, false},
		{"explanation model only", schemaExplanation, `{"confidence":0.5,"rule_hits":{}}`, true},
		{"explanation with source", schemaExplanation, `{"confidence":0.5,"rule_hits":{},"source":"model"}`, true},
		{"explanation bad source", schemaExplanation, `{"confidence":0.5,"rule_hits":{},"source":"guess"}`, false},
		{"explanation negative confidence", schemaExplanation, `{"confidence":-0.1,"rule_hits":{}}`, false},
		{"explanation missing rule_hits", schemaExplanation, `{"confidence":0.5}`, false},
		{"timeline negative count", schemaTimeline, `[{"time":"10:00","attempt":-1,"success":0}]`, false},
		{"top ips", schemaTopIPs, `[{"ip":"1.1.1.1","count":3}]`, true},
		{"login without token", schemaLogin, `{"user":{"username":"a"}}`, false},
		{"login", schemaLogin, `{"access_token":"t","token_type":"bearer","user":{"username":"a"}}`, true},
		{"user", schemaUser, `{"username":"a"}`, true},
		{"message", schemaMessage, `{"message":"ok"}`, true},
		{"invalid json", schemaMessage, `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBody(tt.kind, []byte(tt.body))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateBody_ReportsKind(t *testing.T) {
	err := validateBody(schemaTopIPs, []byte(`[{"ip":""}]`))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "top-ips")
	}
}
