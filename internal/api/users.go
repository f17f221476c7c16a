package api

import (
	"context"
	"strings"
)

// User is an account as the admin user list shows it.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	UserGroup  string `json:"user_group"`
	Role       string `json:"role"`
	Status     int    `json:"status"`
	BalanceUSD string `json:"balance_usd"`
	CreatedAt  string `json:"created_at"`
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
	UserGroup string `json:"user_group,omitempty"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty"`
	Status    *int    `json:"status,omitempty"`
	Role      *string `json:"role,omitempty"`
	UserGroup *string `json:"user_group,omitempty"`
}

const usersPath = "/api/admin/users"

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.get(ctx, usersPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (int64, error) {
	if err := requireText("email", req.Email); err != nil {
		return 0, err
	}
	if !strings.Contains(req.Email, "@") {
		return 0, &ValidationError{Field: "email", Reason: "is not an email address"}
	}
	if err := requireText("username", req.Username); err != nil {
		return 0, err
	}
	if err := requireText("password", req.Password); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, usersPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID int64, req UpdateUserRequest) error {
	if err := requireID("user_id", userID); err != nil {
		return err
	}
	if req.Status != nil {
		if err := validateStatus("status", *req.Status); err != nil {
			return err
		}
	}
	return c.put(ctx, idPath(usersPath+"/%d", userID), req, nil)
}

func (c *Client) ResetUserPassword(ctx context.Context, userID int64, password string) error {
	if err := requireID("user_id", userID); err != nil {
		return err
	}
	if err := requireText("password", password); err != nil {
		return err
	}
	body := struct {
		Password string `json:"password"`
	}{password}
	return c.post(ctx, idPath(usersPath+"/%d/password", userID), body, nil)
}

// AddUserBalance credits (or, with a negative amount, debits) a user's USD
// balance and returns the resulting balance.
func (c *Client) AddUserBalance(ctx context.Context, userID int64, amountUSD, note string) (string, error) {
	if err := requireID("user_id", userID); err != nil {
		return "", err
	}
	if err := validateSignedDecimal("amount_usd", amountUSD); err != nil {
		return "", err
	}
	body := struct {
		AmountUSD string `json:"amount_usd"`
		Note      string `json:"note"`
	}{strings.TrimSpace(amountUSD), note}
	var out struct {
		BalanceUSD string `json:"balance_usd"`
	}
	if err := c.post(ctx, idPath(usersPath+"/%d/balance", userID), body, &out); err != nil {
		return "", err
	}
	return out.BalanceUSD, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	if err := requireID("user_id", userID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(usersPath+"/%d", userID), nil)
}
