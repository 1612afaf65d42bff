// Package api wraps the project backend's REST surface. It owns transport
// and error classification only; caching and persistence belong to the
// view-model.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ekarabulut/qrtrack/internal/model"
)

// Client talks to the project backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client against baseURL. timeout bounds every call; zero
// falls back to 15 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TrackURL is the redirect URL a tracked-mode QR encodes: the backend logs
// the scan, then redirects to the project text.
func (c *Client) TrackURL(projectID string) string {
	return c.baseURL + "/track/" + projectID
}

// SavePayload is the body for CreateProject.
type SavePayload struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Time    string `json:"time"`
	QRImage string `json:"qrImage"`
	QRColor string `json:"qrColor"`
	BGColor string `json:"bgColor"`
}

type listResponse struct {
	Projects []model.Project `json:"projects"`
}

type serverMessage struct {
	Message string `json:"message"`
}

// ListProjects fetches all projects. token may be empty; when present it is
// sent as a bearer header and the server scopes the list to the account.
func (c *Client) ListProjects(ctx context.Context, token string) ([]model.Project, error) {
	const op = "list projects"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get-projects", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setAuth(req, token)

	body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	return lr.Projects, nil
}

// CreateProject saves a new project.
func (c *Client) CreateProject(ctx context.Context, token string, payload SavePayload) error {
	return c.sendJSON(ctx, "save project", http.MethodPost, "/api/save-project", token, payload)
}

// UpdateProjectFields updates name/text only.
func (c *Client) UpdateProjectFields(ctx context.Context, token, id, name, text string) error {
	body := struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}{name, text}
	return c.sendJSON(ctx, "update project", http.MethodPut, "/api/update-project/"+id, token, body)
}

// UpdateProjectColors updates colors and the captured snapshot only.
func (c *Client) UpdateProjectColors(ctx context.Context, token, id, qrColor, bgColor, qrImage string) error {
	body := struct {
		QRColor string `json:"qrColor"`
		BGColor string `json:"bgColor"`
		QRImage string `json:"qrImage"`
	}{qrColor, bgColor, qrImage}
	return c.sendJSON(ctx, "update colors", http.MethodPut, "/api/update-color/"+id, token, body)
}

// DeleteProject removes a project server-side.
func (c *Client) DeleteProject(ctx context.Context, token, id string) error {
	const op = "delete project"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/delete-project/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	setAuth(req, token)
	_, err = c.do(op, req)
	return err
}

// GetScanAnalytics fetches the scan summary for a project.
func (c *Client) GetScanAnalytics(ctx context.Context, token, id string) (*model.Analytics, error) {
	const op = "scan analytics"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get-scan-analytics/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setAuth(req, token)

	body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	var a model.Analytics
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	return &a, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) error {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	return c.sendJSON(ctx, "register", http.MethodPost, "/api/register2", "", body)
}

// DeleteAccount destroys the authenticated account. Callers must only clear
// local state after this returns nil.
func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	const op = "delete account"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/user/account", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	setAuth(req, token)
	_, err = c.do(op, req)
	return err
}

func (c *Client) sendJSON(ctx context.Context, op, method, path, token string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req, token)
	_, err = c.do(op, req)
	return err
}

// do executes the request and classifies the outcome. On a non-2xx status it
// tries to pull the server's message field out of the body.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var sm serverMessage
		_ = json.Unmarshal(body, &sm)
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Message: sm.Message}
	}
	return body, nil
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
