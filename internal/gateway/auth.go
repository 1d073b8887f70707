package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// User is a gateway auth user. Metadata carries application fields such as
// fullName and avatar.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Metadata  map[string]any `json:"user_metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is an authenticated gateway session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SignUp registers a new user with application metadata attached.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", body, requestOpts{})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := resp.decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, requestOpts{})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := resp.decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetUser fetches the user the token belongs to.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, requestOpts{token: token})
	if err != nil {
		return nil, err
	}
	var u User
	if err := resp.decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut revokes the token's session on the gateway side.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, requestOpts{token: token})
	return err
}

// UserUpdate is a partial update of the current user. Zero fields are left
// untouched.
type UserUpdate struct {
	Password string         `json:"password,omitempty"`
	Metadata map[string]any `json:"data,omitempty"`
}

// UpdateUser updates the user the token belongs to.
func (c *Client) UpdateUser(ctx context.Context, token string, update UserUpdate) (*User, error) {
	resp, err := c.do(ctx, http.MethodPut, "/auth/v1/user", update, requestOpts{token: token})
	if err != nil {
		return nil, err
	}
	var u User
	if err := resp.decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UploadBlob stores bytes in a storage bucket and returns the public URL of
// the object.
func (c *Client) UploadBlob(ctx context.Context, token, bucket, name, contentType string, data []byte) (string, error) {
	path := "/storage/v1/object/" + bucket + "/" + url.PathEscape(name)
	_, err := c.do(ctx, http.MethodPost, path, nil, requestOpts{
		token:   token,
		raw:     data,
		rawType: contentType,
	})
	if err != nil {
		return "", err
	}
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + url.PathEscape(name), nil
}
