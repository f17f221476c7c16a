package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// MainGroup is a user-facing group that binds an ordered set of channel groups.
type MainGroup struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      int     `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// MainGroupSubgroup is one channel group bound to a main group.
type MainGroupSubgroup struct {
	Subgroup  string `json:"subgroup"`
	Priority  int    `json:"priority"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateMainGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      *int   `json:"status,omitempty"`
}

// UpdateMainGroupRequest renames and/or edits a main group. Status is always sent.
type UpdateMainGroupRequest struct {
	NewName     string `json:"new_name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      int    `json:"status"`
}

const mainGroupsPath = "/api/admin/main-groups"

func mainGroupPath(name string) string {
	return mainGroupsPath + "/" + url.PathEscape(strings.TrimSpace(name))
}

func (c *Client) ListMainGroups(ctx context.Context) ([]MainGroup, error) {
	var out []MainGroup
	if err := c.get(ctx, mainGroupsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMainGroup(ctx context.Context, req CreateMainGroupRequest) error {
	if err := requireText("name", req.Name); err != nil {
		return err
	}
	if req.Status != nil {
		if err := validateStatus("status", *req.Status); err != nil {
			return err
		}
	}
	req.Name = strings.TrimSpace(req.Name)
	return c.post(ctx, mainGroupsPath, req, nil)
}

func (c *Client) GetMainGroup(ctx context.Context, name string) (*MainGroup, error) {
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	var out MainGroup
	if err := c.get(ctx, mainGroupPath(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMainGroup(ctx context.Context, name string, req UpdateMainGroupRequest) error {
	if err := requireText("name", name); err != nil {
		return err
	}
	if err := validateStatus("status", req.Status); err != nil {
		return err
	}
	req.NewName = strings.TrimSpace(req.NewName)
	return c.put(ctx, mainGroupPath(name), req, nil)
}

func (c *Client) DeleteMainGroup(ctx context.Context, name string) error {
	if err := requireText("name", name); err != nil {
		return err
	}
	return c.delete(ctx, mainGroupPath(name), nil)
}

// ListMainGroupSubgroups returns the bound channel groups in priority order as
// the server stores them; callers normalize before editing.
func (c *Client) ListMainGroupSubgroups(ctx context.Context, name string) ([]MainGroupSubgroup, error) {
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	var out []MainGroupSubgroup
	if err := c.get(ctx, mainGroupPath(name)+"/subgroups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceMainGroupSubgroups submits the complete ordered subgroup set. The
// server drops whatever was bound before.
func (c *Client) ReplaceMainGroupSubgroups(ctx context.Context, name string, subgroups []string) error {
	if err := requireText("name", name); err != nil {
		return err
	}
	if !ordering.Unique(subgroups) {
		return &ValidationError{Field: "subgroups", Reason: "must not contain duplicates"}
	}
	for _, s := range subgroups {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: "subgroups", Reason: "must not contain empty names"}
		}
	}
	if subgroups == nil {
		subgroups = []string{}
	}
	body := struct {
		Subgroups []string `json:"subgroups"`
	}{subgroups}
	return c.put(ctx, mainGroupPath(name)+"/subgroups", body, nil)
}

// SubgroupNames extracts subgroup names in server order.
func SubgroupNames(rows []MainGroupSubgroup) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Subgroup
	}
	return names
}
