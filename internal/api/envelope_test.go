package api

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeListShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{"bare array", `[{"id":"p1"},{"_id":"p2"}]`, []string{"p1", "p2"}},
		{"named collection", `{"projects":[{"id":"p1"}]}`, []string{"p1"}},
		{"envelope array", `{"success":true,"data":[{"id":"p1"}]}`, []string{"p1"}},
		{"envelope named", `{"success":true,"data":{"projects":[{"_id":"p9"}],"total":1}}`, []string{"p9"}},
		{"null body", `null`, nil},
		{"empty body", ``, nil},
		{"null collection", `{"projects":null}`, nil},
		{"envelope null data", `{"success":true,"data":null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := decodeList[wireProject]("/projects", "projects", json.RawMessage(tt.body))
			if err != nil {
				t.Fatalf("decodeList: %v", err)
			}
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(items), len(tt.wantIDs))
			}
			for i, w := range items {
				if got := w.toModel().ID; got != tt.wantIDs[i] {
					t.Errorf("item %d id = %q, want %q", i, got, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestDecodeListRejectsUnexpectedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong collection key", `{"items":[{"id":"p1"}]}`},
		{"collection is object", `{"projects":{"id":"p1"}}`},
		{"scalar", `42`},
		{"string", `"projects"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeList[wireProject]("/projects", "projects", json.RawMessage(tt.body))
			if !IsDecodeError(err) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestUnwrapFailureEnvelope(t *testing.T) {
	_, err := decodeList[wireProject]("/projects", "projects",
		json.RawMessage(`{"success":false,"message":"Quota exceeded"}`))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Error() != "Quota exceeded" {
		t.Errorf("message = %q", apiErr.Error())
	}
}

func TestDecodeObjectShapes(t *testing.T) {
	bodies := []string{
		`{"_id":"u1","name":"Ada"}`,
		`{"user":{"_id":"u1","name":"Ada"}}`,
		`{"success":true,"data":{"_id":"u1","name":"Ada"}}`,
		`{"success":true,"data":{"user":{"id":"u1","name":"Ada"}}}`,
	}
	for _, body := range bodies {
		u, err := DecodeUser("/me", json.RawMessage(body))
		if err != nil {
			t.Fatalf("DecodeUser(%s): %v", body, err)
		}
		if u.ID != "u1" || u.Name != "Ada" {
			t.Errorf("DecodeUser(%s) = %+v", body, u)
		}
	}

	if _, err := DecodeUser("/me", json.RawMessage(`[1,2]`)); !IsDecodeError(err) {
		t.Errorf("expected DecodeError for array, got %v", err)
	}
}

func TestProjectDefaults(t *testing.T) {
	body := `[{"id":"p1"}]`
	items, err := decodeList[wireProject]("/projects", "projects", json.RawMessage(body))
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	p := items[0].toModel()
	if p.Title != "" || p.Client != "" {
		t.Errorf("missing strings should be empty: %+v", p)
	}
	if !p.Budget.Total.IsZero() {
		t.Errorf("missing budget should be zero, got %s", p.Budget.Total)
	}
	if p.Deadline != nil {
		t.Errorf("missing deadline should be nil")
	}
}

func TestProjectTolerantFields(t *testing.T) {
	body := `{"success":true,"data":{"projects":[{
		"_id":"p1",
		"title":"Site",
		"client":{"name":"Acme"},
		"status":"in_progress",
		"budget":{"total":"2500.50","currency":"USD"},
		"deadline":"2024-01-15",
		"notes":"call client",
		"createdAt":"2024-01-02T10:00:00.000Z"
	},{
		"id":7,
		"client":"Globex",
		"budget":1200,
		"notes":[{"_id":"n1","content":"hi","isImportant":true}]
	}]}}`

	items, err := decodeList[wireProject]("/projects", "projects", json.RawMessage(body))
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	first, second := items[0].toModel(), items[1].toModel()

	if first.Client != "Acme" || first.Budget.Total.String() != "2500.5" || first.Budget.Currency != "USD" {
		t.Errorf("first project = %+v", first)
	}
	if first.Deadline == nil || first.Deadline.Day() != 15 || first.Deadline.Location() != time.Local {
		t.Errorf("deadline should be local calendar date, got %v", first.Deadline)
	}
	if len(first.Notes) != 1 || first.Notes[0].Content != "call client" {
		t.Errorf("string notes = %+v", first.Notes)
	}
	if first.CreatedAt.IsZero() {
		t.Errorf("createdAt not parsed")
	}

	if second.ID != "7" || second.Client != "Globex" || second.Budget.Total.IntPart() != 1200 {
		t.Errorf("second project = %+v", second)
	}
	if len(second.Notes) != 1 || !second.Notes[0].Important {
		t.Errorf("list notes = %+v", second.Notes)
	}
}

func TestTaskRelations(t *testing.T) {
	body := `{"tasks":[
		{"id":"t1","project":{"_id":"p1","title":"Site"},"assignee":{"_id":"u1","name":"Ada"},"status":"completed"},
		{"id":"t2","project":"p2"},
		{"id":"t3","project":null}
	]}`
	items, err := decodeList[wireTask]("/tasks", "tasks", json.RawMessage(body))
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	tasks := mapList(items, wireTask.toModel)

	if tasks[0].ProjectID() != "p1" || tasks[0].ProjectTitle() != "Site" || tasks[0].Assignee.Name != "Ada" {
		t.Errorf("object relations = %+v", tasks[0])
	}
	if !tasks[0].IsCompleted() {
		t.Errorf("t1 should be completed")
	}
	if tasks[1].ProjectID() != "p2" {
		t.Errorf("bare id relation = %+v", tasks[1].Project)
	}
	if tasks[2].Project != nil || tasks[2].Assignee != nil {
		t.Errorf("null relations should be nil: %+v", tasks[2])
	}
}

func TestAmountTolerance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`3000`, "3000"},
		{`"3000.25"`, "3000.25"},
		{`null`, "0"},
		{`""`, "0"},
		{`"n/a"`, "0"},
	}
	for _, tt := range tests {
		var a amount
		if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
			t.Fatalf("amount(%s): %v", tt.in, err)
		}
		if a.String() != tt.want {
			t.Errorf("amount(%s) = %s, want %s", tt.in, a.String(), tt.want)
		}
	}
}

func TestStatsDecoding(t *testing.T) {
	body := `{"success":true,"data":{
		"projects":{"total":4,"active":"2","completed":1},
		"tasks":{"total":10,"completed":6,"overdue":1},
		"finance":{"totalEarnings":3500,"pendingPayments":"1200"}
	}}`
	w, err := decodeObject[wireStats]("/dashboard/stats", "stats", json.RawMessage(body))
	if err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	s := w.toModel()
	if s.Projects.Active != 2 || s.Tasks.Completed != 6 {
		t.Errorf("counters = %+v", s)
	}
	if s.Finance.TotalEarnings.IntPart() != 3500 || s.Finance.PendingPayments.IntPart() != 1200 {
		t.Errorf("finance = %+v", s.Finance)
	}
}
