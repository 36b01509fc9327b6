package api

import (
	"context"

	"github.com/nhle/tracerx/internal/model"
)

// DashboardStats fetches the dashboard counters and earnings.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	const endpoint = "/dashboard/stats"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	w, err := decodeObject[wireStats](endpoint, "stats", raw)
	if err != nil {
		return nil, err
	}
	s := w.toModel()
	return &s, nil
}

// DashboardActivities fetches the recent activity feed.
func (c *Client) DashboardActivities(ctx context.Context) ([]model.Activity, error) {
	const endpoint = "/dashboard/activities"
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

// DashboardDeadlines fetches upcoming deadlines.
func (c *Client) DashboardDeadlines(ctx context.Context) ([]model.Deadline, error) {
	const endpoint = "/dashboard/deadlines"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireDeadline](endpoint, "deadlines", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireDeadline.toModel), nil
}

// DashboardFinanceOverview fetches monthly earnings and recent transactions.
func (c *Client) DashboardFinanceOverview(ctx context.Context) (*model.FinanceOverview, error) {
	const endpoint = "/dashboard/finance-overview"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &model.FinanceOverview{}, nil
	}
	w, err := decodeObject[wireFinanceOverview](endpoint, "overview", raw)
	if err != nil {
		return nil, err
	}
	o := w.toModel()
	return &o, nil
}
