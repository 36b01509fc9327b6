package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sessions := session.NewManager(session.NewKeyringStore(keyring.NewArrayKeyring(nil)), nil)
	return NewService(srv.URL, sessions, 5*time.Second, nil), sessions
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		email, password string
		ok              bool
	}{
		{"a@b.c", "secret", true},
		{"  ", "secret", false},
		{"a@b.c", "", false},
	}
	for _, tt := range tests {
		err := ValidateLogin(tt.email, tt.password)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateLogin(%q, %q) = %v", tt.email, tt.password, err)
		}
		if err != nil && !model.IsValidation(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	if err := ValidateRegistration("Ada", "a@b.c", "12345"); err == nil || err.Error() != msgPasswordTooShort {
		t.Errorf("short password: %v", err)
	}
	if err := ValidateRegistration("", "a@b.c", "123456"); err == nil || err.Error() != msgFillAllFields {
		t.Errorf("missing name: %v", err)
	}
	if err := ValidateRegistration("Ada", "a@b.c", "123456"); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	called := false
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	if _, err := svc.Login(context.Background(), "", ""); !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Error("network call made for invalid input")
	}
}

func TestLoginSavesSession(t *testing.T) {
	var got map[string]string
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"data":{"token":"tok-1","user":{"_id":"u1","name":"Ada","email":"ada@example.com"}}}`))
	})

	user, err := svc.Login(context.Background(), "  ada@example.com ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got["email"] != "ada@example.com" {
		t.Errorf("email not trimmed: %q", got["email"])
	}
	if user.ID != "u1" || !sessions.IsAuthenticated() || sessions.Token() != "tok-1" {
		t.Errorf("session not saved: user=%+v token=%q", user, sessions.Token())
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", http.StatusUnauthorized, `{"success":false,"data":{"message":"Invalid credentials"}}`, "Invalid credentials"},
		{"success false with 200", http.StatusOK, `{"success":false}`, msgLoginFailed},
		{"no message", http.StatusInternalServerError, `{}`, msgLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := svc.Login(context.Background(), "a@b.c", "secret")
			if err == nil || err.Error() != tt.want {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
			if sessions.IsAuthenticated() {
				t.Error("failed login must not create a session")
			}
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent without a token")
	})
	if _, err := svc.Me(context.Background()); !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateProfileRefreshesStoredUser(t *testing.T) {
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"success":true,"data":{"_id":"u1","name":"Ada L.","email":"ada@example.com"}}`))
	})
	sessions.Save("tok", model.User{ID: "u1", Name: "Ada"})

	if _, err := svc.UpdateProfile(context.Background(), ProfileUpdate{Name: "Ada L."}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	u, _ := sessions.User()
	if u.Name != "Ada L." {
		t.Errorf("stored user = %+v", u)
	}
}

func TestLogout(t *testing.T) {
	svc, sessions := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	sessions.Save("tok", model.User{ID: "u1"})
	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if sessions.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
}
