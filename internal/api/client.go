package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "FILES_MANAGER_HTTP_TIMEOUT"
	// TokenHeader carries the session token on authenticated requests.
	TokenHeader = "X-Token"
)

// Client is a simple HTTP client for the files manager API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// SetToken sets the session token sent in the X-Token header.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Token returns the current session token.
func (c *Client) Token() string {
	return c.token
}

// Register creates a new user.
func (c *Client) Register(ctx context.Context, email, password string) (UserResponse, error) {
	var resp UserResponse
	err := c.do(ctx, http.MethodPost, "/users", nil, CreateUserRequest{Email: email, Password: password}, &resp)
	return resp, err
}

// Connect logs in with Basic credentials and stores the returned token on the client.
func (c *Client) Connect(ctx context.Context, email, password string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/connect", nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	req.Header.Set("Authorization", "Basic "+credentials)

	var resp TokenResponse
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// Disconnect revokes the current session token.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/disconnect", nil, nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (UserResponse, error) {
	var resp UserResponse
	err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateFile(ctx context.Context, req CreateFileRequest) (File, error) {
	var resp File
	err := c.do(ctx, http.MethodPost, "/files", nil, req, &resp)
	return resp, err
}

func (c *Client) GetFile(ctx context.Context, id string) (File, error) {
	var resp File
	err := c.do(ctx, http.MethodGet, "/files/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

// ListFiles lists the caller's files under parentID ("" or "0" for the root).
func (c *Client) ListFiles(ctx context.Context, parentID string, page int) ([]File, error) {
	query := url.Values{}
	if strings.TrimSpace(parentID) != "" {
		query.Set("parentId", parentID)
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	var resp []File
	err := c.do(ctx, http.MethodGet, "/files", query, nil, &resp)
	return resp, err
}

func (c *Client) Publish(ctx context.Context, id string) (File, error) {
	var resp File
	err := c.do(ctx, http.MethodPut, "/files/"+url.PathEscape(id)+"/publish", nil, nil, &resp)
	return resp, err
}

func (c *Client) Unpublish(ctx context.Context, id string) (File, error) {
	var resp File
	err := c.do(ctx, http.MethodPut, "/files/"+url.PathEscape(id)+"/unpublish", nil, nil, &resp)
	return resp, err
}

// Download streams file content to w and returns its content type.
// A size of 0 requests the original; 100, 250 and 500 request a thumbnail.
func (c *Client) Download(ctx context.Context, id string, size int, w io.Writer) (string, error) {
	endpoint := c.baseURL + "/files/" + url.PathEscape(id) + "/data"
	if size > 0 {
		endpoint += "?size=" + strconv.Itoa(size)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.setTokenHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("Content-Type"), nil
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, nil, &resp)
	return resp, err
}

func (c *Client) Stats(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setTokenHeader(req)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
	}
	return apiErr
}

func (c *Client) setTokenHeader(req *http.Request) {
	if c.token == "" || req == nil {
		return
	}
	req.Header.Set(TokenHeader, c.token)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultHTTPTimeout
}
