package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/model"
)

// The API is loosely typed: ids arrive as "id" or "_id", relations as
// objects, bare ids or null, and numbers sometimes as strings. The flex
// types below absorb those variations so the wire structs can map onto
// model types with zero-value defaults.

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// flexString accepts strings, numbers, booleans and null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
	case '{', '[':
		return fmt.Errorf("expected string, got %s", kind(b))
	default:
		*s = flexString(b)
	}
	return nil
}

// flexInt accepts integers, floats (truncated), numeric strings and null.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		*n = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %s", kind(b))
	}
	*n = flexInt(int(f))
	return nil
}

// flexBool accepts booleans, "true"/"false", 0/1 and null.
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		*v = false
		return nil
	}
	s := strings.Trim(string(b), `"`)
	parsed, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("expected boolean, got %s", kind(b))
	}
	*v = flexBool(parsed)
	return nil
}

// amount is a decimal money value. Numbers and numeric strings are
// accepted; null, empty and non-numeric strings decode to zero.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	a.Decimal = decimal.Zero
	if isNull(b) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("expected amount, got %s", kind(b))
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	a.Decimal = d
	return nil
}

// flexTime accepts ISO-8601 timestamps, plain dates and epoch millis.
// Unparseable values decode to the zero time.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	t.Time = time.Time{}
	if isNull(b) {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err == nil {
			t.Time = time.UnixMilli(ms)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t.Time = parseTime(s)
	return nil
}

// parseTime tries the known timestamp layouts. A bare date is a calendar
// day and is anchored at local midnight so day arithmetic is unaffected
// by the UTC offset.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if len(s) == len("2006-01-02") {
		if d, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			return d
		}
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// ptr returns nil for the zero time.
func (t flexTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// ref is a relation that may be an object, a bare id or null.
type ref struct {
	ID    string
	Title string
	Name  string
	set   bool
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = ref{}
	if isNull(b) {
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			ID      flexString `json:"id"`
			MongoID flexString `json:"_id"`
			Title   flexString `json:"title"`
			Name    flexString `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = ref{
			ID:    pickID(obj.ID, obj.MongoID),
			Title: string(obj.Title),
			Name:  string(obj.Name),
			set:   true,
		}
	case '[':
		return fmt.Errorf("expected relation, got %s", kind(b))
	default:
		var id flexString
		if err := id.UnmarshalJSON(b); err != nil {
			return err
		}
		if id != "" {
			*r = ref{ID: string(id), set: true}
		}
	}
	return nil
}

func (r ref) project() *model.ProjectRef {
	if !r.set {
		return nil
	}
	title := r.Title
	if title == "" {
		title = r.Name
	}
	return &model.ProjectRef{ID: r.ID, Title: title}
}

func (r ref) user() *model.UserRef {
	if !r.set {
		return nil
	}
	name := r.Name
	if name == "" {
		name = r.Title
	}
	return &model.UserRef{ID: r.ID, Name: name}
}

func pickID(id, mongoID flexString) string {
	if id != "" {
		return string(id)
	}
	return string(mongoID)
}

func kind(b []byte) string {
	if len(b) == 0 {
		return "empty value"
	}
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// --- projects ---

// clientField is the project client: a name string or {name}.
type clientField string

func (c *clientField) UnmarshalJSON(b []byte) error {
	var r ref
	if err := r.UnmarshalJSON(b); err != nil {
		return err
	}
	name := r.Name
	if name == "" && bytes.TrimSpace(b)[0] != '{' {
		name = r.ID
	}
	*c = clientField(name)
	return nil
}

// budgetField is {total, currency} or a bare number.
type budgetField struct {
	Total    amount
	Currency string
}

func (f *budgetField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = budgetField{Total: amount{decimal.Zero}}
	if isNull(b) {
		return nil
	}
	if b[0] != '{' {
		return f.Total.UnmarshalJSON(b)
	}
	var obj struct {
		Total    amount     `json:"total"`
		Currency flexString `json:"currency"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	f.Total = obj.Total
	f.Currency = string(obj.Currency)
	return nil
}

type wireNote struct {
	ID          flexString `json:"id"`
	MongoID     flexString `json:"_id"`
	Content     flexString `json:"content"`
	IsImportant flexBool   `json:"isImportant"`
	CreatedAt   flexTime   `json:"createdAt"`
}

func (w wireNote) toModel() model.Note {
	return model.Note{
		ID:        pickID(w.ID, w.MongoID),
		Content:   string(w.Content),
		Important: bool(w.IsImportant),
		CreatedAt: w.CreatedAt.Time,
	}
}

// notesField is a list of notes or a single free-text string.
type notesField []model.Note

func (n *notesField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = nil
	if isNull(b) {
		return nil
	}
	if b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		if strings.TrimSpace(text) != "" {
			*n = notesField{{Content: text}}
		}
		return nil
	}
	var notes []wireNote
	if err := json.Unmarshal(b, &notes); err != nil {
		return err
	}
	out := make(notesField, 0, len(notes))
	for _, w := range notes {
		out = append(out, w.toModel())
	}
	*n = out
	return nil
}

type wireProject struct {
	ID          flexString  `json:"id"`
	MongoID     flexString  `json:"_id"`
	Title       flexString  `json:"title"`
	Description flexString  `json:"description"`
	Client      clientField `json:"client"`
	Status      flexString  `json:"status"`
	Deadline    flexTime    `json:"deadline"`
	Budget      budgetField `json:"budget"`
	Notes       notesField  `json:"notes"`
	CreatedAt   flexTime    `json:"createdAt"`
}

func (w wireProject) toModel() model.Project {
	return model.Project{
		ID:          pickID(w.ID, w.MongoID),
		Title:       string(w.Title),
		Client:      string(w.Client),
		Description: string(w.Description),
		Status:      model.ProjectStatus(w.Status),
		Deadline:    w.Deadline.ptr(),
		Budget: model.Budget{
			Total:    w.Budget.Total.Decimal,
			Currency: w.Budget.Currency,
		},
		Notes:     []model.Note(w.Notes),
		CreatedAt: w.CreatedAt.Time,
	}
}

// --- tasks ---

type wireTask struct {
	ID          flexString `json:"id"`
	MongoID     flexString `json:"_id"`
	Title       flexString `json:"title"`
	Description flexString `json:"description"`
	Project     ref        `json:"project"`
	Status      flexString `json:"status"`
	Priority    flexString `json:"priority"`
	DueDate     flexTime   `json:"dueDate"`
	Assignee    ref        `json:"assignee"`
	CreatedAt   flexTime   `json:"createdAt"`
}

func (w wireTask) toModel() model.Task {
	return model.Task{
		ID:          pickID(w.ID, w.MongoID),
		Title:       string(w.Title),
		Description: string(w.Description),
		Project:     w.Project.project(),
		Status:      model.TaskStatus(w.Status),
		Priority:    model.TaskPriority(w.Priority),
		DueDate:     w.DueDate.ptr(),
		Assignee:    w.Assignee.user(),
		CreatedAt:   w.CreatedAt.Time,
	}
}

// --- finance ---

type wireTransaction struct {
	ID          flexString `json:"id"`
	MongoID     flexString `json:"_id"`
	Project     ref        `json:"project"`
	Amount      amount     `json:"amount"`
	Type        flexString `json:"type"`
	Status      flexString `json:"status"`
	Currency    flexString `json:"currency"`
	Date        flexTime   `json:"date"`
	Description flexString `json:"description"`
	CreatedAt   flexTime   `json:"createdAt"`
}

func (w wireTransaction) toModel() model.Transaction {
	date := w.Date.Time
	if date.IsZero() {
		date = w.CreatedAt.Time
	}
	tx := model.Transaction{
		ID:          pickID(w.ID, w.MongoID),
		Amount:      w.Amount.Decimal,
		Type:        model.TransactionType(w.Type),
		Status:      string(w.Status),
		Currency:    string(w.Currency),
		Date:        date,
		Description: string(w.Description),
	}
	if p := w.Project.project(); p != nil {
		tx.ProjectID = p.ID
		tx.Project = p.Title
	}
	return tx
}

type wireMonthlyEarning struct {
	Month    flexString `json:"month"`
	Amount   *amount    `json:"amount"`
	Earnings *amount    `json:"earnings"`
	Total    *amount    `json:"total"`
}

func (w wireMonthlyEarning) toModel() model.MonthlyEarning {
	out := model.MonthlyEarning{Month: string(w.Month), Amount: decimal.Zero}
	for _, a := range []*amount{w.Amount, w.Earnings, w.Total} {
		if a != nil {
			out.Amount = a.Decimal
			break
		}
	}
	return out
}

type wireFinanceOverview struct {
	MonthlyEarnings []wireMonthlyEarning `json:"monthlyEarnings"`
	Transactions    []wireTransaction    `json:"transactions"`
}

func (w wireFinanceOverview) toModel() model.FinanceOverview {
	out := model.FinanceOverview{
		MonthlyEarnings: make([]model.MonthlyEarning, 0, len(w.MonthlyEarnings)),
		Transactions:    make([]model.Transaction, 0, len(w.Transactions)),
	}
	for _, m := range w.MonthlyEarnings {
		out.MonthlyEarnings = append(out.MonthlyEarnings, m.toModel())
	}
	for _, t := range w.Transactions {
		out.Transactions = append(out.Transactions, t.toModel())
	}
	return out
}

type wireFinanceSummary struct {
	TotalInvoiced amount     `json:"totalInvoiced"`
	TotalPaid     amount     `json:"totalPaid"`
	TotalPending  amount     `json:"totalPending"`
	Currency      flexString `json:"currency"`
}

func (w wireFinanceSummary) toModel() model.FinanceSummary {
	return model.FinanceSummary{
		TotalInvoiced: w.TotalInvoiced.Decimal,
		TotalPaid:     w.TotalPaid.Decimal,
		TotalPending:  w.TotalPending.Decimal,
		Currency:      string(w.Currency),
	}
}

// --- dashboard ---

type wireStats struct {
	Projects struct {
		Total     flexInt `json:"total"`
		Active    flexInt `json:"active"`
		Completed flexInt `json:"completed"`
	} `json:"projects"`
	Tasks struct {
		Total     flexInt `json:"total"`
		Completed flexInt `json:"completed"`
		Overdue   flexInt `json:"overdue"`
	} `json:"tasks"`
	Finance struct {
		TotalEarnings   amount `json:"totalEarnings"`
		PendingPayments amount `json:"pendingPayments"`
	} `json:"finance"`
}

func (w wireStats) toModel() model.DashboardStats {
	return model.DashboardStats{
		Projects: model.ProjectCounts{
			Total:     int(w.Projects.Total),
			Active:    int(w.Projects.Active),
			Completed: int(w.Projects.Completed),
		},
		Tasks: model.TaskCounts{
			Total:     int(w.Tasks.Total),
			Completed: int(w.Tasks.Completed),
			Overdue:   int(w.Tasks.Overdue),
		},
		Finance: model.FinanceStats{
			TotalEarnings:   w.Finance.TotalEarnings.Decimal,
			PendingPayments: w.Finance.PendingPayments.Decimal,
		},
	}
}

type wireActivity struct {
	ID        flexString `json:"id"`
	MongoID   flexString `json:"_id"`
	Type      flexString `json:"type"`
	Title     flexString `json:"title"`
	Project   ref        `json:"project"`
	Read      flexBool   `json:"read"`
	IsRead    flexBool   `json:"isRead"`
	CreatedAt flexTime   `json:"createdAt"`
}

func (w wireActivity) toModel() model.Activity {
	return model.Activity{
		ID:        pickID(w.ID, w.MongoID),
		Type:      model.ActivityType(w.Type),
		Title:     string(w.Title),
		Project:   w.Project.project(),
		Read:      bool(w.Read || w.IsRead),
		CreatedAt: w.CreatedAt.Time,
	}
}

type wireDeadline struct {
	ID       flexString `json:"id"`
	MongoID  flexString `json:"_id"`
	Title    flexString `json:"title"`
	Project  ref        `json:"project"`
	Deadline flexTime   `json:"deadline"`
	DueDate  flexTime   `json:"dueDate"`
}

func (w wireDeadline) toModel() model.Deadline {
	due := w.Deadline.Time
	if due.IsZero() {
		due = w.DueDate.Time
	}
	d := model.Deadline{
		ID:       pickID(w.ID, w.MongoID),
		Title:    string(w.Title),
		Deadline: due,
	}
	if p := w.Project.project(); p != nil {
		d.ProjectTitle = p.Title
	}
	return d
}

// --- users ---

type wireUser struct {
	ID      flexString `json:"id"`
	MongoID flexString `json:"_id"`
	Name    flexString `json:"name"`
	Email   flexString `json:"email"`
	Role    flexString `json:"role"`
	Avatar  flexString `json:"avatar"`
}

func (w wireUser) toModel() model.User {
	return model.User{
		ID:     pickID(w.ID, w.MongoID),
		Name:   string(w.Name),
		Email:  string(w.Email),
		Role:   string(w.Role),
		Avatar: string(w.Avatar),
	}
}

type wireUserStats struct {
	TotalUsers  flexInt `json:"totalUsers"`
	ActiveUsers flexInt `json:"activeUsers"`
	NewUsers    flexInt `json:"newUsers"`
}

func (w wireUserStats) toModel() model.UserStats {
	return model.UserStats{
		TotalUsers:  int(w.TotalUsers),
		ActiveUsers: int(w.ActiveUsers),
		NewUsers:    int(w.NewUsers),
	}
}
