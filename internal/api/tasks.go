package api

import (
	"context"
	"net/url"

	"github.com/nhle/tracerx/internal/model"
)

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	Status    string
	ProjectID string
	Search    string
}

func (f TaskFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.ProjectID != "" {
		q.Set("project", f.ProjectID)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// TaskInput is the payload for CreateTask.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"project"`
	AssigneeID  string `json:"assignee"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TaskUpdate is a partial task update; nil fields are not sent.
type TaskUpdate struct {
	Title    *string `json:"title,omitempty"`
	Status   *string `json:"status,omitempty"`
	Priority *string `json:"priority,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
}

// CommentInput is the payload for AddTaskComment.
type CommentInput struct {
	Text string `json:"text"`
}

// ListTasks fetches tasks matching f.
func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	const endpoint = "/tasks"
	raw, err := c.Get(ctx, withQuery(endpoint, f.query()))
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireTask](endpoint, "tasks", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireTask.toModel), nil
}

// CreateTask creates a task and returns the server's copy.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	const endpoint = "/tasks"
	raw, err := c.Post(ctx, endpoint, in)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	w, err := decodeObject[wireTask](endpoint, "task", raw)
	if err != nil {
		return nil, err
	}
	t := w.toModel()
	return &t, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, u TaskUpdate) error {
	_, err := c.Put(ctx, "/tasks/"+escape(id), u)
	return err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/tasks/"+escape(id))
	return err
}

// AddTaskComment posts a comment on a task.
func (c *Client) AddTaskComment(ctx context.Context, taskID string, in CommentInput) error {
	_, err := c.Post(ctx, "/tasks/"+escape(taskID)+"/comments", in)
	return err
}
