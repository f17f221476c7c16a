package api

import "context"

type Announcement struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Status    int    `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateAnnouncementRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status *int   `json:"status,omitempty"`
}

const announcementsPath = "/api/admin/announcements"

func (c *Client) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	var out []Announcement
	if err := c.get(ctx, announcementsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, req CreateAnnouncementRequest) (int64, error) {
	if err := requireText("title", req.Title); err != nil {
		return 0, err
	}
	if err := requireText("body", req.Body); err != nil {
		return 0, err
	}
	if req.Status != nil {
		if err := validateStatus("status", *req.Status); err != nil {
			return 0, err
		}
	}
	var out Created
	if err := c.post(ctx, announcementsPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// SetAnnouncementStatus publishes (1) or hides (0) an announcement.
func (c *Client) SetAnnouncementStatus(ctx context.Context, id int64, status int) error {
	if err := requireID("announcement_id", id); err != nil {
		return err
	}
	if err := validateStatus("status", status); err != nil {
		return err
	}
	body := struct {
		Status int `json:"status"`
	}{status}
	return c.put(ctx, idPath(announcementsPath+"/%d", id), body, nil)
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id int64) error {
	if err := requireID("announcement_id", id); err != nil {
		return err
	}
	return c.delete(ctx, idPath(announcementsPath+"/%d", id), nil)
}
