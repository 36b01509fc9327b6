package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

// fakeAPI serves canned bodies keyed by "METHOD /path" and records the
// order of requests.
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]string
	failing  map[string]int
	requests []string
	bodies   map[string]map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		routes:  map[string]string{},
		failing: map[string]int{},
		bodies:  map[string]map[string]any{},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, key)
	if r.Body != nil && r.ContentLength > 0 {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.bodies[key] = body
	}
	status, failing := f.failing[key]
	body, ok := f.routes[key]
	f.mu.Unlock()

	if failing {
		w.WriteHeader(status)
		w.Write([]byte(`{"message":"boom"}`))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no route ` + key + `"}`))
		return
	}
	w.Write([]byte(body))
}

func (f *fakeAPI) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

type staticUser model.User

func (u staticUser) User() (model.User, bool) { return model.User(u), u.ID != "" }

var refNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.Local)

func newTestService(t *testing.T, f *fakeAPI) *Service {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc := NewService(api.NewClient(srv.URL, api.StaticToken("tok"), 5*time.Second, nil), staticUser{ID: "me", Name: "Me"}, nil)
	svc.SetClock(func() time.Time { return refNow })
	return svc
}

func dashboardRoutes(f *fakeAPI) {
	f.routes["GET /dashboard/stats"] = `{"success":true,"data":{"projects":{"total":2},"finance":{"totalEarnings":2500}}}`
	f.routes["GET /projects"] = `{"success":true,"data":{"projects":[
		{"_id":"p1","title":"Old","budget":{"total":5000},"createdAt":"2024-01-01T00:00:00Z"},
		{"_id":"p2","title":"New","budget":{"total":3000},"createdAt":"2024-01-05T00:00:00Z"}
	]}}`
	f.routes["GET /dashboard/activities"] = `{"activities":[{"_id":"a1","type":"task_completed","title":"Done"}]}`
	f.routes["GET /dashboard/deadlines"] = `{"deadlines":[{"_id":"d1","title":"Ship","project":{"title":"New"},"deadline":"2024-01-12"}]}`
	f.routes["GET /dashboard/finance-overview"] = `{"monthlyEarnings":[{"month":"Jan","amount":2500}],"transactions":[]}`
	f.routes["GET /tasks"] = `{"tasks":[
		{"_id":"t1","project":{"_id":"p1"},"status":"completed"},
		{"_id":"t2","project":{"_id":"p1"},"status":"todo"},
		{"_id":"t3","project":null,"status":"completed"}
	]}`
}

func TestLoadDashboard(t *testing.T) {
	f := newFakeAPI()
	dashboardRoutes(f)
	svc := newTestService(t, f)

	d, err := svc.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}
	if !d.Totals.TotalBudget.Equal(decimal.NewFromInt(8000)) || !d.Totals.Pending.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("totals = %+v", d.Totals)
	}
	if len(d.RecentProjects) != 2 || d.RecentProjects[0].ProjectID != "p2" {
		t.Errorf("recent projects = %+v", d.RecentProjects)
	}
	if d.RecentProjects[1].Progress != 50 {
		t.Errorf("p1 progress = %d, want 50", d.RecentProjects[1].Progress)
	}
	if d.OrphanedTasks != 1 {
		t.Errorf("orphans = %d, want 1", d.OrphanedTasks)
	}
	if len(d.Deadlines) != 1 || d.Deadlines[0].DaysLeft != 2 || d.Deadlines[0].Label != "2 days left" {
		t.Errorf("deadlines = %+v", d.Deadlines)
	}
	if len(d.MonthlyEarnings) != 1 {
		t.Errorf("monthly earnings = %+v", d.MonthlyEarnings)
	}
}

func TestLoadDashboardFailsWhole(t *testing.T) {
	f := newFakeAPI()
	dashboardRoutes(f)
	f.failing["GET /dashboard/deadlines"] = http.StatusInternalServerError
	svc := newTestService(t, f)

	d, err := svc.LoadDashboard(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if d != nil {
		t.Errorf("partial dashboard returned: %+v", d)
	}
	if err.Error() != "boom" {
		t.Errorf("error = %q, want server message", err.Error())
	}
}

func TestLoadProjectsJoinFailure(t *testing.T) {
	f := newFakeAPI()
	dashboardRoutes(f)
	f.failing["GET /tasks"] = http.StatusBadGateway
	svc := newTestService(t, f)

	rows, err := svc.LoadProjects(context.Background(), ProjectQuery{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(rows) != 0 {
		t.Errorf("partial projects returned: %d", len(rows))
	}
}

func TestLoadProjectsSearch(t *testing.T) {
	f := newFakeAPI()
	dashboardRoutes(f)
	svc := newTestService(t, f)

	rows, err := svc.LoadProjects(context.Background(), ProjectQuery{Search: "old"})
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "p1" || rows[0].Progress != 50 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestAddPaymentOrdering(t *testing.T) {
	f := newFakeAPI()
	f.routes["POST /finance"] = `{"success":true,"data":{"_id":"tx9"}}`
	f.routes["GET /finance"] = `{"transactions":[
		{"_id":"tx1","amount":3000,"status":"paid"},
		{"_id":"tx2","amount":2000,"status":"pending"}
	]}`
	svc := newTestService(t, f)

	project := model.Project{ID: "p1", Budget: model.Budget{Total: decimal.NewFromInt(10000), Currency: "USD"}}
	fin, err := svc.AddPayment(context.Background(), project, "3000")
	if err != nil {
		t.Fatalf("AddPayment: %v", err)
	}

	log := f.requestLog()
	if len(log) != 2 || log[0] != "POST /finance" || log[1] != "GET /finance" {
		t.Fatalf("requests = %v", log)
	}
	body := f.bodies["POST /finance"]
	if body["type"] != "payment" || body["status"] != "paid" || body["date"] != "2024-01-10" ||
		body["description"] != "Client payment" || body["amount"] != float64(3000) {
		t.Errorf("payment payload = %v", body)
	}
	if !fin.Rollup.Remaining.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("remaining = %s, want 7000", fin.Rollup.Remaining)
	}
}

func TestPaidMatcherFromConfig(t *testing.T) {
	f := newFakeAPI()
	f.routes["GET /finance"] = `{"transactions":[
		{"_id":"tx1","amount":3000,"status":"Paid"},
		{"_id":"tx2","amount":1000,"status":"Completed"},
		{"_id":"tx3","amount":2000,"status":"paid"}
	]}`
	svc := newTestService(t, f)
	project := model.Project{ID: "p1", Budget: model.Budget{Total: decimal.NewFromInt(10000)}}

	fin, err := svc.LoadProjectFinance(context.Background(), project)
	if err != nil {
		t.Fatalf("LoadProjectFinance: %v", err)
	}
	if !fin.Rollup.Paid.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("default paid = %s, want 2000", fin.Rollup.Paid)
	}

	svc.SetPaidMatcher(metrics.MatchAnyStatus("Paid", "Completed"))
	fin, err = svc.LoadProjectFinance(context.Background(), project)
	if err != nil {
		t.Fatalf("LoadProjectFinance: %v", err)
	}
	if !fin.Rollup.Paid.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("configured paid = %s, want 4000", fin.Rollup.Paid)
	}
}

func TestAddPaymentRejectsBadAmount(t *testing.T) {
	f := newFakeAPI()
	svc := newTestService(t, f)

	for _, in := range []string{"", "abc", "0", "-5"} {
		if _, err := svc.AddPayment(context.Background(), model.Project{ID: "p1"}, in); !model.IsValidation(err) {
			t.Errorf("amount %q: expected validation error, got %v", in, err)
		}
	}
	if n := len(f.requestLog()); n != 0 {
		t.Errorf("%d requests sent for invalid amounts", n)
	}
}

func TestLoadProjectDetail(t *testing.T) {
	f := newFakeAPI()
	f.routes["GET /projects/p1"] = `{"success":true,"data":{"project":{"_id":"p1","title":"Site","deadline":"2024-01-20"}}}`
	f.routes["GET /tasks"] = `{"tasks":[
		{"_id":"t1","project":{"_id":"p1"},"status":"completed","dueDate":"2024-01-09"},
		{"_id":"t2","project":{"_id":"p2"},"status":"todo"}
	]}`
	svc := newTestService(t, f)

	d, err := svc.LoadProjectDetail(context.Background(), "p1")
	if err != nil {
		t.Fatalf("LoadProjectDetail: %v", err)
	}
	if d.Progress != 100 || len(d.Tasks) != 1 {
		t.Errorf("detail = %+v", d)
	}
	if d.DeadlineLabel != "10 days remaining" {
		t.Errorf("deadline label = %q", d.DeadlineLabel)
	}
	if d.Tasks[0].DueLabel != "1 days overdue" {
		t.Errorf("due label = %q", d.Tasks[0].DueLabel)
	}
}

func TestFilterTasks(t *testing.T) {
	rows := []TaskRow{
		{Task: model.Task{Title: "Design logo", Status: model.TaskTodo, Project: &model.ProjectRef{Title: "Brand"}}},
		{Task: model.Task{Title: "Write copy", Status: model.TaskCompleted, Project: &model.ProjectRef{Title: "Website"}}},
		{Task: model.Task{Title: "Deploy", Status: model.TaskInProgress}},
	}
	tests := []struct {
		q    TaskQuery
		want int
	}{
		{TaskQuery{}, 3},
		{TaskQuery{Status: "all"}, 3},
		{TaskQuery{Status: "completed"}, 1},
		{TaskQuery{Search: "WEB"}, 1},
		{TaskQuery{Search: "de"}, 2},
		{TaskQuery{Search: "de", Status: "todo"}, 1},
	}
	for _, tt := range tests {
		if got := len(FilterTasks(rows, tt.q)); got != tt.want {
			t.Errorf("FilterTasks(%+v) = %d rows, want %d", tt.q, got, tt.want)
		}
	}
}

func TestNextStatus(t *testing.T) {
	if NextStatus(model.TaskCompleted) != model.TaskTodo {
		t.Error("completed should toggle to todo")
	}
	for _, s := range []model.TaskStatus{model.TaskTodo, model.TaskInProgress, model.TaskNotStarted} {
		if NextStatus(s) != model.TaskCompleted {
			t.Errorf("%s should toggle to completed", s)
		}
	}
}

func TestProjectFormValidate(t *testing.T) {
	valid := ProjectForm{Title: "Site", ClientName: "Acme", Budget: "5000", Deadline: "2024-03-01"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	missing := valid
	missing.ClientName = " "
	if err := missing.Validate(); err == nil || err.Error() != msgProjectRequired {
		t.Errorf("missing client: %v", err)
	}

	badBudget := valid
	badBudget.Budget = "lots"
	if err := badBudget.Validate(); !model.IsValidation(err) {
		t.Errorf("bad budget: %v", err)
	}

	badDate := valid
	badDate.Deadline = "March 1"
	if err := badDate.Validate(); !model.IsValidation(err) {
		t.Errorf("bad deadline: %v", err)
	}
}

func TestCreateTaskDefaultsAssignee(t *testing.T) {
	f := newFakeAPI()
	f.routes["POST /tasks"] = `{"success":true,"data":{"_id":"t1","title":"Logo"}}`
	svc := newTestService(t, f)

	form := TaskForm{Title: "Logo", ProjectID: "p1", DueDate: "2024-02-01"}
	if _, err := svc.CreateTask(context.Background(), form); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got := f.bodies["POST /tasks"]["assignee"]; got != "me" {
		t.Errorf("assignee = %v, want me", got)
	}

	if err := (TaskForm{Title: "x"}).Validate(); err == nil || err.Error() != msgTaskRequired {
		t.Errorf("missing fields: %v", err)
	}
}

func TestFilterTransactions(t *testing.T) {
	txs := []model.Transaction{
		{Type: model.TransactionInvoice, Status: "Pending", Project: "Website"},
		{Type: model.TransactionPayment, Status: "paid", Project: "Brand"},
		{Type: model.TransactionInvoice, Status: "paid", Project: "Brand"},
	}
	tests := []struct {
		q    FinanceQuery
		want int
	}{
		{FinanceQuery{Filter: "all"}, 3},
		{FinanceQuery{Filter: "invoices"}, 2},
		{FinanceQuery{Filter: "payments"}, 1},
		{FinanceQuery{Filter: "pending"}, 1},
		{FinanceQuery{Filter: "all", Search: "brand"}, 2},
	}
	for _, tt := range tests {
		if got := len(FilterTransactions(txs, tt.q)); got != tt.want {
			t.Errorf("FilterTransactions(%+v) = %d, want %d", tt.q, got, tt.want)
		}
	}
}

func TestDeleteProjectsConcurrently(t *testing.T) {
	f := newFakeAPI()
	f.routes["DELETE /projects/p1"] = ``
	f.routes["DELETE /projects/p2"] = ``
	svc := newTestService(t, f)

	if err := svc.DeleteProjects(context.Background(), []string{"p1", "p2"}); err != nil {
		t.Fatalf("DeleteProjects: %v", err)
	}
	if n := len(f.requestLog()); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}

	f.failing["DELETE /projects/p3"] = http.StatusForbidden
	if err := svc.DeleteProjects(context.Background(), []string{"p1", "p3"}); err == nil {
		t.Error("expected error when one delete fails")
	}
}

func TestNextProjectStatus(t *testing.T) {
	tests := []struct {
		in, want model.ProjectStatus
	}{
		{model.ProjectNotStarted, model.ProjectInProgress},
		{model.ProjectInProgress, model.ProjectOnHold},
		{model.ProjectOnHold, model.ProjectCompleted},
		{model.ProjectCompleted, model.ProjectNotStarted},
		{model.ProjectArchived, model.ProjectNotStarted},
		{"", model.ProjectNotStarted},
	}
	for _, tt := range tests {
		if got := NextProjectStatus(tt.in); got != tt.want {
			t.Errorf("NextProjectStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterProjects(t *testing.T) {
	rows := []ProjectRow{
		{Project: model.Project{Title: "Website", Client: "Acme"}},
		{Project: model.Project{Title: "Logo", Client: "Globex"}},
	}
	if got := FilterProjects(rows, "  "); len(got) != 2 {
		t.Errorf("blank search kept %d rows, want 2", len(got))
	}
	if got := FilterProjects(rows, "ACME"); len(got) != 1 || got[0].Title != "Website" {
		t.Errorf("client search = %+v", got)
	}
	if got := FilterProjects(rows, "logo"); len(got) != 1 || got[0].Client != "Globex" {
		t.Errorf("title search = %+v", got)
	}
	if got := FilterProjects(rows, "initech"); len(got) != 0 {
		t.Errorf("no-match search kept %d rows", len(got))
	}
}

func TestNewProjectRowDeadline(t *testing.T) {
	due := refNow.AddDate(0, 0, 5)
	row := newProjectRow(model.Project{Title: "Site", Deadline: &due}, 40, refNow)
	if !row.HasDeadline || row.DaysLeft != 5 || row.DeadlineLabel != "5 days remaining" {
		t.Errorf("row = %+v", row)
	}

	past := refNow.AddDate(0, 0, -2)
	row = newProjectRow(model.Project{Deadline: &past}, 0, refNow)
	if row.DeadlineLabel != "2 days overdue" {
		t.Errorf("overdue label = %q", row.DeadlineLabel)
	}

	row = newProjectRow(model.Project{}, 0, refNow)
	if row.HasDeadline {
		t.Error("project without deadline reported one")
	}
}
