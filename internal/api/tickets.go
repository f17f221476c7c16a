package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type TicketListItem struct {
	ID            int64  `json:"id"`
	UserEmail     string `json:"user_email"`
	Subject       string `json:"subject"`
	StatusText    string `json:"status_text"`
	StatusBadge   string `json:"status_badge"`
	LastMessageAt string `json:"last_message_at"`
	CreatedAt     string `json:"created_at"`
}

type TicketAttachment struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	ExpiresAt string `json:"expires_at"`
	URL       string `json:"url"`
}

type TicketMessage struct {
	ID          int64              `json:"id"`
	Actor       string             `json:"actor"`
	ActorMeta   string             `json:"actor_meta"`
	Body        string             `json:"body"`
	CreatedAt   string             `json:"created_at"`
	Attachments []TicketAttachment `json:"attachments,omitempty"`
}

type Ticket struct {
	ID            int64  `json:"id"`
	UserEmail     string `json:"user_email"`
	Subject       string `json:"subject"`
	StatusText    string `json:"status_text"`
	StatusBadge   string `json:"status_badge"`
	LastMessageAt string `json:"last_message_at"`
	CreatedAt     string `json:"created_at"`
	ClosedAt      string `json:"closed_at"`
	CanReply      bool   `json:"can_reply"`
	Closed        bool   `json:"closed"`
}

type TicketDetail struct {
	Ticket   Ticket          `json:"ticket"`
	Messages []TicketMessage `json:"messages"`
}

// TicketStatusFilter narrows the ticket list.
type TicketStatusFilter string

const (
	TicketsAll    TicketStatusFilter = "all"
	TicketsOpen   TicketStatusFilter = "open"
	TicketsClosed TicketStatusFilter = "closed"
)

// ParseTicketStatusFilter accepts all, open or closed; empty means all.
func ParseTicketStatusFilter(s string) (TicketStatusFilter, error) {
	switch f := TicketStatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", TicketsAll:
		return TicketsAll, nil
	case TicketsOpen, TicketsClosed:
		return f, nil
	default:
		return "", &ValidationError{Field: "status", Reason: "must be all, open or closed"}
	}
}

// Attachment is one file part of a ticket reply.
type Attachment struct {
	Name    string
	Content io.Reader
}

// OpenAttachment reads a local file into an Attachment named after its base name.
func OpenAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	return Attachment{Name: filepath.Base(path), Content: bytes.NewReader(data)}, nil
}

const ticketsPath = "/api/admin/tickets"

func (c *Client) ListTickets(ctx context.Context, status TicketStatusFilter) ([]TicketListItem, error) {
	var query url.Values
	if status == TicketsOpen || status == TicketsClosed {
		query = url.Values{"status": {string(status)}}
	}
	var out []TicketListItem
	if err := c.get(ctx, ticketsPath, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*TicketDetail, error) {
	if err := requireID("ticket_id", ticketID); err != nil {
		return nil, err
	}
	var out TicketDetail
	if err := c.get(ctx, idPath(ticketsPath+"/%d", ticketID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplyTicket posts a multipart form with a body field and one "attachments"
// part per file.
func (c *Client) ReplyTicket(ctx context.Context, ticketID int64, body string, attachments []Attachment) error {
	if err := requireID("ticket_id", ticketID); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return &ValidationError{Field: "body", Reason: "is required when no attachment is given"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("body", body); err != nil {
		return fmt.Errorf("failed to build reply form: %w", err)
	}
	for _, a := range attachments {
		if strings.TrimSpace(a.Name) == "" || a.Content == nil {
			return &ValidationError{Field: "attachments", Reason: "each attachment needs a name and content"}
		}
		part, err := w.CreateFormFile("attachments", a.Name)
		if err != nil {
			return fmt.Errorf("failed to build reply form: %w", err)
		}
		if _, err := io.Copy(part, a.Content); err != nil {
			return fmt.Errorf("failed to read attachment %s: %w", a.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build reply form: %w", err)
	}

	p := &payload{contentType: w.FormDataContentType(), body: buf.Bytes()}
	return c.send(ctx, http.MethodPost, idPath(ticketsPath+"/%d/reply", ticketID), nil, p, nil)
}

func (c *Client) CloseTicket(ctx context.Context, ticketID int64) error {
	if err := requireID("ticket_id", ticketID); err != nil {
		return err
	}
	return c.post(ctx, idPath(ticketsPath+"/%d/close", ticketID), nil, nil)
}

func (c *Client) ReopenTicket(ctx context.Context, ticketID int64) error {
	if err := requireID("ticket_id", ticketID); err != nil {
		return err
	}
	return c.post(ctx, idPath(ticketsPath+"/%d/reopen", ticketID), nil, nil)
}
