package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nhle/tracerx/internal/model"
)

func TestIsQuotationRequest(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"How much would a 5-page site cost?", true},
		{"Can you give me a QUOTE for a logo?", true},
		{"I need a proposal for a mobile app", true},
		{"What's a fair price for copywriting", true},
		{"Thanks for the help!", false},
		{"How do I stay motivated?", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsQuotationRequest(tt.text); got != tt.want {
			t.Errorf("IsQuotationRequest(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestConversationContextKeepsFirst(t *testing.T) {
	c := NewConversationContext(4)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		c.AddMessage(RoleUser, s)
	}
	msgs := c.GetMessages()
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	got := []string{msgs[0].Content, msgs[1].Content, msgs[2].Content, msgs[3].Content}
	want := []string{"a", "d", "e", "f"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("messages = %v, want %v", got, want)
		}
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len after Reset = %d", c.Len())
	}
}

type recorded struct {
	path string
	key  string
	req  apiRequest
}

func newGeminiServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body apiRequest
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		reqs = append(reqs, recorded{path: r.URL.Path, key: r.Header.Get("x-goog-api-key"), req: body})
		mu.Unlock()

		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"code":500,"message":"backend unavailable"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": reply}}},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func testConfig(baseURL string) model.AIConfig {
	return model.AIConfig{
		Model:            "gemini-2.0-flash",
		BaseURL:          baseURL,
		Temperature:      0.9,
		QuoteTemperature: 0.7,
		TopP:             0.95,
		TopK:             40,
		MaxOutputTokens:  8192,
		APIKey:           "k",
	}
}

func TestRespondQuotation(t *testing.T) {
	srv, reqs := newGeminiServer(t, http.StatusOK, "PROJECT TITLE: Site")
	a := New(testConfig(srv.URL), nil)

	r := a.Respond(context.Background(), "How much would a 5-page site cost?")
	if r.Failed || !r.IsQuotation || r.Text != "PROJECT TITLE: Site" {
		t.Fatalf("reply = %+v", r)
	}

	got := (*reqs)[0]
	if got.path != "/v1beta/models/gemini-2.0-flash:generateContent" || got.key != "k" {
		t.Errorf("request path=%q key=%q", got.path, got.key)
	}
	if got.req.GenerationConfig.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got.req.GenerationConfig.Temperature)
	}
	if len(got.req.Contents) != 1 || !strings.Contains(got.req.Contents[0].Parts[0].Text, "PROJECT TITLE:") {
		t.Errorf("quotation request should carry only the template: %+v", got.req.Contents)
	}
}

func TestRespondChatSeedsPersona(t *testing.T) {
	srv, reqs := newGeminiServer(t, http.StatusOK, "Keep going!")
	a := New(testConfig(srv.URL), nil)

	a.Respond(context.Background(), "Thanks for the help!")
	a.Respond(context.Background(), "Any tips?")

	second := (*reqs)[1].req
	if second.GenerationConfig.Temperature != 0.9 || second.GenerationConfig.ResponseMimeType != "text/plain" {
		t.Errorf("generation config = %+v", second.GenerationConfig)
	}
	roles := make([]string, 0, len(second.Contents))
	for _, c := range second.Contents {
		roles = append(roles, c.Role)
	}
	want := "user,model,user,model,user"
	if strings.Join(roles, ",") != want {
		t.Errorf("roles = %v, want %s", roles, want)
	}
	if second.Contents[0].Parts[0].Text != SystemPrompt {
		t.Error("first turn should be the persona prompt")
	}
	if a.context.Len() != 4 {
		t.Errorf("history len = %d, want 4", a.context.Len())
	}
}

func TestRespondFailureApologises(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusInternalServerError, "")
	a := New(testConfig(srv.URL), nil)

	r := a.Respond(context.Background(), "Thanks for the help!")
	if !r.Failed || r.Text != ChatApology {
		t.Errorf("chat reply = %+v", r)
	}
	r = a.Respond(context.Background(), "Give me an estimate")
	if !r.Failed || r.Text != QuotationApology {
		t.Errorf("quotation reply = %+v", r)
	}
	if a.context.Len() != 0 {
		t.Errorf("failed exchanges recorded: %d", a.context.Len())
	}
}

func TestRespondWithoutKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""
	a := New(cfg, nil)
	if a.Configured() {
		t.Fatal("Configured with empty key")
	}
	if r := a.Chat(context.Background(), "hi"); r.Text != ChatApology {
		t.Errorf("reply = %+v", r)
	}
}
