package api

import (
	"context"

	"github.com/nhle/tracerx/internal/model"
)

// ListActivities fetches the full activity feed.
func (c *Client) ListActivities(ctx context.Context) ([]model.Activity, error) {
	const endpoint = "/activities"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireActivity](endpoint, "activities", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireActivity.toModel), nil
}

// GetActivity fetches a single activity.
func (c *Client) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	path := "/activities/" + escape(id)
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	w, err := decodeObject[wireActivity](path, "activity", raw)
	if err != nil {
		return nil, err
	}
	a := w.toModel()
	return &a, nil
}

// MarkActivityRead marks one activity as read.
func (c *Client) MarkActivityRead(ctx context.Context, id string) error {
	_, err := c.Patch(ctx, "/activities/"+escape(id)+"/read", nil)
	return err
}

// MarkAllActivitiesRead marks the whole feed as read.
func (c *Client) MarkAllActivitiesRead(ctx context.Context) error {
	_, err := c.Patch(ctx, "/activities/read/all", nil)
	return err
}

// DeleteActivity removes an activity.
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/activities/"+escape(id))
	return err
}
