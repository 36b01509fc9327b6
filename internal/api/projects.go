package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/nhle/tracerx/internal/model"
)

// projectStatusFilters maps the status filter keys used by the project
// list onto the API's status values. "all" and "" apply no filter.
var projectStatusFilters = map[string]string{
	"active":    string(model.ProjectInProgress),
	"completed": string(model.ProjectCompleted),
	"on-hold":   string(model.ProjectOnHold),
	"archived":  string(model.ProjectArchived),
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	// Status is a filter key ("all", "active", "completed", "on-hold",
	// "archived") or a raw API status, which is passed through.
	Status string
	Search string
}

func (f ProjectFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" && f.Status != "all" {
		status, ok := projectStatusFilters[f.Status]
		if !ok {
			status = f.Status
		}
		q.Set("status", status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// ProjectInput is the payload for CreateProject.
type ProjectInput struct {
	Title       string
	Description string
	ClientName  string
	Budget      json.Number
	Currency    string
	Deadline    string // YYYY-MM-DD
	Status      model.ProjectStatus
}

type projectPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Client      struct {
		Name string `json:"name"`
	} `json:"client"`
	Budget struct {
		Total    json.Number `json:"total"`
		Currency string      `json:"currency,omitempty"`
	} `json:"budget"`
	Deadline string `json:"deadline,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ProjectUpdate is a partial project update; nil fields are not sent.
type ProjectUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	IsArchived  *bool   `json:"isArchived,omitempty"`
}

// NoteInput is the payload for AddProjectNote.
type NoteInput struct {
	Content     string `json:"content"`
	IsImportant bool   `json:"isImportant"`
}

// ListProjects fetches projects matching f.
func (c *Client) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	const endpoint = "/projects"
	raw, err := c.Get(ctx, withQuery(endpoint, f.query()))
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireProject](endpoint, "projects", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireProject.toModel), nil
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	path := "/projects/" + escape(id)
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	w, err := decodeObject[wireProject](path, "project", raw)
	if err != nil {
		return nil, err
	}
	p := w.toModel()
	return &p, nil
}

// CreateProject creates a project and returns the server's copy.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	const endpoint = "/projects"
	var payload projectPayload
	payload.Title = in.Title
	payload.Description = in.Description
	payload.Client.Name = in.ClientName
	payload.Budget.Total = in.Budget
	payload.Budget.Currency = in.Currency
	payload.Deadline = in.Deadline
	payload.Status = string(in.Status)

	raw, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	w, err := decodeObject[wireProject](endpoint, "project", raw)
	if err != nil {
		return nil, err
	}
	p := w.toModel()
	return &p, nil
}

// UpdateProject applies a partial update.
func (c *Client) UpdateProject(ctx context.Context, id string, u ProjectUpdate) error {
	_, err := c.Put(ctx, "/projects/"+escape(id), u)
	return err
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/projects/"+escape(id))
	return err
}

// AddProjectNote appends a note to a project and returns the stored note.
func (c *Client) AddProjectNote(ctx context.Context, projectID string, in NoteInput) (*model.Note, error) {
	path := "/projects/" + escape(projectID) + "/notes"
	raw, err := c.Post(ctx, path, in)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		n := model.Note{Content: in.Content, Important: in.IsImportant}
		return &n, nil
	}
	w, err := decodeObject[wireNote](path, "note", raw)
	if err != nil {
		return nil, err
	}
	n := w.toModel()
	return &n, nil
}
