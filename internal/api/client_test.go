package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/logging"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, StaticToken(token), 5*time.Second, nil)
}

func TestBearerHeader(t *testing.T) {
	var got string
	c := newTestClient(t, "abc123", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	if _, err := c.ListProjects(context.Background(), ProjectFilter{}); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if got != "Bearer abc123" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestNoTokenSendsNoHeader(t *testing.T) {
	var present bool
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.Write([]byte(`{"tasks":[]}`))
	})

	if _, err := c.ListTasks(context.Background(), TaskFilter{}); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if present {
		t.Error("Authorization header sent without a token")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", 400, `{"message":"Title is required"}`, "Title is required"},
		{"nested message", 422, `{"success":false,"data":{"message":"Bad budget"}}`, "Bad budget"},
		{"no message", 500, `{"success":false}`, "Request failed"},
		{"non json", 502, `<html>Bad Gateway</html>`, "Network error"},
		{"empty", 503, ``, "Network error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetProject(context.Background(), "p1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestRejectedRequestLogsRequestLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Title is required"}`))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := logging.New(logging.Config{Writer: &buf})
	c := NewClient(srv.URL, StaticToken("tok"), 5*time.Second, logger)

	if _, err := c.GetProject(context.Background(), "p1"); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(buf.String(), "GET /projects/p1: status 400: Title is required") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestIsUnauthorized(t *testing.T) {
	c := newTestClient(t, "expired", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	})

	_, err := c.DashboardStats(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestProjectStatusFilterMapping(t *testing.T) {
	tests := []struct {
		filter ProjectFilter
		want   string
	}{
		{ProjectFilter{}, ""},
		{ProjectFilter{Status: "all"}, ""},
		{ProjectFilter{Status: "active"}, "status=in_progress"},
		{ProjectFilter{Status: "on-hold"}, "status=on_hold"},
		{ProjectFilter{Status: "completed", Search: "acme"}, "search=acme&status=completed"},
		{ProjectFilter{Status: "not_started"}, "status=not_started"},
	}

	for _, tt := range tests {
		var query string
		c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			w.Write([]byte(`[]`))
		})
		if _, err := c.ListProjects(context.Background(), tt.filter); err != nil {
			t.Fatalf("ListProjects: %v", err)
		}
		if query != tt.want {
			t.Errorf("filter %+v: query = %q, want %q", tt.filter, query, tt.want)
		}
	}
}

func TestCreateProjectPayload(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/projects" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"_id":"p1","title":"Site","budget":{"total":5000}}}`))
	})

	p, err := c.CreateProject(context.Background(), ProjectInput{
		Title:      "Site",
		ClientName: "Acme",
		Budget:     json.Number("5000"),
		Deadline:   "2024-03-01",
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID != "p1" || !p.Budget.Total.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("project = %+v", p)
	}

	client, _ := body["client"].(map[string]any)
	if client["name"] != "Acme" {
		t.Errorf("client payload = %v", body["client"])
	}
	budget, _ := body["budget"].(map[string]any)
	if budget["total"] != float64(5000) {
		t.Errorf("budget total should be a JSON number, got %#v", budget["total"])
	}
}

func TestEmptyResponseBody(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
}

func TestUpdateTransactionStatus(t *testing.T) {
	var method, path, payload string
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		payload = string(b)
		w.Write([]byte(`{"success":true,"data":{}}`))
	})

	if err := c.UpdateTransactionStatus(context.Background(), "tx1", "paid"); err != nil {
		t.Fatalf("UpdateTransactionStatus: %v", err)
	}
	if method != http.MethodPatch || path != "/finance/tx1/status" {
		t.Errorf("request = %s %s", method, path)
	}
	if !strings.Contains(payload, `"status":"paid"`) {
		t.Errorf("payload = %s", payload)
	}
}

func TestUpdateAvatarRequiresToken(t *testing.T) {
	called := false
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.UpdateAvatar(context.Background(), "u1", "me.png", strings.NewReader("png"))
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if called {
		t.Error("request sent without a token")
	}
}

func TestUpdateAvatarMultipart(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		f, hdr, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("missing avatar: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "me.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		w.Write([]byte(`{"success":true,"data":{"_id":"u1","avatar":"/a/me.png"}}`))
	})

	u, err := c.UpdateAvatar(context.Background(), "u1", "me.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if u.Avatar != "/a/me.png" {
		t.Errorf("avatar = %q", u.Avatar)
	}
}

func TestDecodeSession(t *testing.T) {
	raw := json.RawMessage(`{"success":true,"data":{"token":"jwt","user":{"_id":"u1","email":"a@b.c"}}}`)
	token, user, err := DecodeSession("/login", raw)
	if err != nil {
		t.Fatalf("DecodeSession: %v", err)
	}
	if token != "jwt" || user.ID != "u1" {
		t.Errorf("session = %q %+v", token, user)
	}

	if _, _, err := DecodeSession("/login", json.RawMessage(`{"user":{}}`)); !IsDecodeError(err) {
		t.Errorf("missing token should be a DecodeError, got %v", err)
	}
}
