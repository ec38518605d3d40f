// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticToken is a TokenSource with a fixed value.
type staticToken string

func (s staticToken) Token() (string, bool) {
	return string(s), s != ""
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL).WithHTTPClient(srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const sampleEvent = `{
	"event_id": "evt-1",
	"timestamp": "2024-03-01T10:15:00",
	"source_ip": "10.0.0.5",
	"method": "GET",
	"url": "/search?q=' OR 1=1",
	"status_code": 200,
	"attack_type": "sqli",
	"is_successful": true,
	"user_agent": "curl/8.0",
	"payload": null,
	"response_size": 512,
	"confidence": 0.93
}`

// =============================================================================
// READ ENDPOINTS
// =============================================================================

func TestEvents_QueryAndDecode(t *testing.T) {
	var gotQuery string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/events", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, "["+sampleEvent+"]")
	})

	successful := true
	events, err := client.Events(context.Background(), EventQuery{
		Limit:        25,
		Offset:       50,
		SourceIP:     "10.0.0.5",
		AttackType:   "sqli",
		IsSuccessful: &successful,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "evt-1", ev.EventID)
	assert.Equal(t, "10.0.0.5", ev.SourceIP)
	assert.True(t, ev.IsSuccessful)
	assert.Equal(t, 200, ev.StatusCode)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), ev.Timestamp.Time)
	assert.Nil(t, ev.Payload)
	assert.InDelta(t, 0.93, ev.Confidence, 1e-9)

	assert.Contains(t, gotQuery, "limit=25")
	assert.Contains(t, gotQuery, "offset=50")
	assert.Contains(t, gotQuery, "source_ip=10.0.0.5")
	assert.Contains(t, gotQuery, "attack_type=sqli")
	assert.Contains(t, gotQuery, "is_successful=true")
}

func TestEvents_DefaultLimit(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.False(t, r.URL.Query().Has("offset"))
		writeJSON(w, http.StatusOK, "[]")
	})

	events, err := client.Events(context.Background(), EventQuery{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEvents_ServerErrorCarriesDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"detail": "database offline"}`)
	})

	_, err := client.Events(context.Background(), EventQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Equal(t, "database offline", UserMessage(err))
}

func TestEvents_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url).WithTimeout(time.Second)
	_, err := client.Events(context.Background(), EventQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, 0, StatusCode(err))
}

func TestTimelineAndTopIPs(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stats/timeline":
			writeJSON(w, http.StatusOK, `[{"time":"10:00","attempt":3,"success":1},{"time":"11:00","attempt":0,"success":2}]`)
		case "/stats/top-ips":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, `[{"ip":"10.0.0.5","count":42}]`)
		default:
			http.NotFound(w, r)
		}
	})

	buckets, err := client.Timeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TimelineBucket{
		{Time: "10:00", Attempt: 3, Success: 1},
		{Time: "11:00", Attempt: 0, Success: 2},
	}, buckets)

	ips, err := client.TopIPs(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []TopIPEntry{{IP: "10.0.0.5", Count: 42}}, ips)
}

func TestExplain(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/explain/evt-1":
			writeJSON(w, http.StatusOK, `{
				"event_id": "evt-1",
				"attack_type": "sqli",
				"confidence": 0.9,
				"rule_hits": {"sqli": ["union_select", "tautology"]},
				"payload_snippet": "' OR 1=1 --",
				"factors": ["keyword match"]
			}`)
		case "/explain/evt-2":
			writeJSON(w, http.StatusOK, `{"confidence": 0.61, "rule_hits": {}, "payload_snippet": null}`)
		case "/explain/a%2Fb":
			writeJSON(w, http.StatusNotFound, `{"detail": "Event not found"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
			http.NotFound(w, r)
		}
	})

	t.Run("rule backed", func(t *testing.T) {
		exp, err := client.Explain(context.Background(), "evt-1")
		require.NoError(t, err)
		assert.Equal(t, SourceRule, exp.Source())
		assert.Equal(t, []string{"sqli"}, exp.Categories())
		snippet, ok := exp.Snippet()
		assert.True(t, ok)
		assert.Equal(t, "' OR 1=1 --", snippet)
	})

	t.Run("model only", func(t *testing.T) {
		exp, err := client.Explain(context.Background(), "evt-2")
		require.NoError(t, err)
		assert.Equal(t, "evt-2", exp.EventID)
		assert.NotNil(t, exp.RuleHits)
		assert.Empty(t, exp.RuleHits)
		assert.Equal(t, SourceModel, exp.Source())
		_, ok := exp.Snippet()
		assert.False(t, ok)
	})

	t.Run("escaped id not found", func(t *testing.T) {
		_, err := client.Explain(context.Background(), "a/b")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
		assert.Equal(t, "Event not found", UserMessage(err))
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := client.Explain(context.Background(), "")
		assert.ErrorIs(t, err, ErrRequestFailed)
	})
}

func TestExplain_MalformedRejected(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"confidence": 1.7, "rule_hits": {"sqli": "not-a-list"}}`)
	})

	_, err := client.Explain(context.Background(), "evt-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestStoryline_SortedAndChecked(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storyline/10.0.0.5":
			writeJSON(w, http.StatusOK, `[
				{"event_id":"b","timestamp":"2024-03-01T10:20:00","source_ip":"10.0.0.5","method":"GET","url":"/b","status_code":404,"attack_type":"xss","is_successful":false},
				{"event_id":"a","timestamp":"2024-03-01T10:10:00","source_ip":"10.0.0.5","method":"GET","url":"/a","status_code":200,"attack_type":"sqli","is_successful":true}
			]`)
		case "/storyline/10.0.0.6":
			writeJSON(w, http.StatusOK, `[
				{"event_id":"c","timestamp":"2024-03-01T10:10:00","source_ip":"10.9.9.9","method":"GET","url":"/c","status_code":200,"attack_type":"sqli","is_successful":true}
			]`)
		default:
			http.NotFound(w, r)
		}
	})

	events, err := client.Storyline(context.Background(), "10.0.0.5")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].EventID)
	assert.Equal(t, "b", events[1].EventID)

	_, err = client.Storyline(context.Background(), "10.0.0.6")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

// =============================================================================
// PROTECTED ENDPOINTS
// =============================================================================

func TestUploadLogs(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/logs", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("clear_existing"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "access.csv", header.Filename)
		assert.Equal(t, "ts,ip\n", string(data))

		writeJSON(w, http.StatusOK, `{"message":"Ingested 1 events"}`)
	}).WithTokenSource(staticToken("tok-123"))

	msg, err := client.UploadLogs(context.Background(), "/tmp/access.csv", strings.NewReader("ts,ip\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "Ingested 1 events", msg.Message)
}

func TestUploadLogs_RejectsExtensionLocally(t *testing.T) {
	var hits atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}).WithTokenSource(staticToken("tok"))

	_, err := client.UploadLogs(context.Background(), "notes.txt", strings.NewReader("x"), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Zero(t, hits.Load())
}

func TestUploadLogs_DetailVerbatim(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"detail":"Unsupported file format. Use CSV or JSON."}`)
	}).WithTokenSource(staticToken("tok"))

	_, err := client.UploadLogs(context.Background(), "a.json", strings.NewReader("{}"), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, "Unsupported file format. Use CSV or JSON.", UserMessage(err))
}

func TestProtectedCallWithoutToken(t *testing.T) {
	var hits atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := client.ClearEvents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClearFailed)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
}

func TestClearEvents_RejectedTokenIsSessionInvalid(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	}).WithTokenSource(staticToken("expired"))

	_, err := client.ClearEvents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClearFailed)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

func TestLogin_FormBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		if r.PostForm.Get("password") != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`)
			return
		}
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		writeJSON(w, http.StatusOK, `{"access_token":"tok-1","token_type":"bearer","user":{"username":"alice"}}`)
	})

	resp, err := client.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)

	_, err = client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.NotErrorIs(t, err, ErrSessionInvalid)
	assert.Equal(t, "Incorrect username or password", UserMessage(err))
}

func TestSignup_JSONBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		if body["username"] == "taken" {
			writeJSON(w, http.StatusBadRequest, `{"detail":"Username already registered"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"username":"`+body["username"]+`"}`)
	})

	user, err := client.Signup(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = client.Signup(context.Background(), "taken", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignupFailed)
	assert.Equal(t, "Username already registered", UserMessage(err))
}

func TestMe(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			writeJSON(w, http.StatusOK, `{"username":"alice"}`)
		default:
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
		}
	})

	user, err := client.Me(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = client.Me(context.Background(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = client.Me(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// =============================================================================
// TRANSPORT
// =============================================================================

func TestValidationDetailList(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","password"],"msg":"field required","type":"value_error.missing"}]}`)
	})

	_, err := client.Signup(context.Background(), "bob", "")
	require.Error(t, err)
	assert.Equal(t, "password: field required", UserMessage(err))
}

func TestNonJSONErrorFallsBackToStatusText(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := client.Timeline(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Bad Gateway", UserMessage(err))
}

func TestRateLimitHonoursContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "[]")
	}).WithRateLimit(0.001, 1)

	_, err := client.Timeline(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Timeline(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestErrorString(t *testing.T) {
	err := &Error{Op: "GET /events", Kind: ErrRequestFailed, Status: 500, Detail: "boom"}
	assert.Equal(t, "request failed (HTTP 500): boom", err.Error())

	wrapped := &Error{Kind: ErrUploadFailed, Err: errors.New("disk full")}
	assert.Equal(t, "upload failed: disk full", wrapped.Error())
	assert.Equal(t, "upload failed: disk full", wrapped.Message())
}

func TestValidateUploadName(t *testing.T) {
	assert.NoError(t, ValidateUploadName("logs.CSV"))
	assert.NoError(t, ValidateUploadName("/var/log/app.json"))
	assert.Error(t, ValidateUploadName("app.log"))
	assert.Error(t, ValidateUploadName("noext"))
}
