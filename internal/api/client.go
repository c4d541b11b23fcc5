package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
)

// Config represents the configuration for the storefront API client
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api
	BaseURL string

	// CSRFURL is fetched before login and register to obtain the XSRF cookie
	CSRFURL string

	// Timeout bounds every request
	Timeout time.Duration

	// Transport is optional and lets several clients share connections
	Transport http.RoundTripper

	Logger *logger.Logger
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	return nil
}

// Client talks to the storefront API on behalf of one session. It owns the
// session's cookie jar and bearer token.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	log := config.Logger
	if log == nil {
		log = logger.Get()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Jar:       jar,
			Transport: config.Transport,
		},
		log: log,
	}, nil
}

// SetToken sets the bearer token attached to every later request. An empty
// token removes the header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FetchCSRFCookie performs the CSRF preflight required before login and
// register. The cookie lands in the client's jar.
func (c *Client) FetchCSRFCookie(ctx context.Context) error {
	if c.config.CSRFURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.CSRFURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create csrf request: %w", err)
	}
	c.setHeaders(req, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrCSRF, ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: preflight returned status %d", ErrCSRF, resp.StatusCode)
	}
	return nil
}

// schema is implemented by response bodies that can check their own shape.
type schema interface {
	validate() error
}

type formField struct {
	name  string
	value string
}

// Upload is a file sent in a multipart request.
type Upload struct {
	Field    string
	Filename string
	Data     []byte
}

type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}

	// multipart bodies replace body when set
	fields  []formField
	uploads []Upload
}

func (c *Client) buildBody(r request) (io.Reader, string, error) {
	if r.fields != nil || r.uploads != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range r.fields {
			if err := w.WriteField(f.name, f.value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", f.name, err)
			}
		}
		for _, u := range r.uploads {
			part, err := w.CreateFormFile(u.Field, u.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create form file %s: %w", u.Filename, err)
			}
			if _, err := part.Write(u.Data); err != nil {
				return nil, "", fmt.Errorf("failed to write form file %s: %w", u.Filename, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}

	if r.body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", requestID)

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.httpClient.Jar != nil {
		for _, cookie := range c.httpClient.Jar.Cookies(req.URL) {
			if cookie.Name != csrfCookieName {
				continue
			}
			value, err := url.QueryUnescape(cookie.Value)
			if err != nil {
				value = cookie.Value
			}
			req.Header.Set(csrfHeaderName, value)
		}
	}
}

// do performs a request against the API and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	body, contentType, err := c.buildBody(r)
	if err != nil {
		return err
	}

	endpoint := c.config.BaseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(req, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("API request failed", logger.Fields{
			"request_id": requestID,
			"method":     r.method,
			"path":       r.path,
			"error":      err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	c.log.Debug("API request completed", logger.Fields{
		"request_id":  requestID,
		"method":      r.method,
		"path":        r.path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if len(respBody) > 0 {
			// A body that is not the usual error shape still yields a status based error
			_ = json.Unmarshal(respBody, &errResp)
		}
		return newError(resp.StatusCode, errResp)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			c.log.Warn("API response does not match schema", logger.Fields{
				"request_id": requestID,
				"path":       r.path,
				"error":      err.Error(),
			})
			return fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, r.path, err)
		}
	}
	if s, ok := out.(schema); ok {
		if err := s.validate(); err != nil {
			c.log.Warn("API response does not match schema", logger.Fields{
				"request_id": requestID,
				"path":       r.path,
				"error":      err.Error(),
			})
			return fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, r.path, err)
		}
	}
	return nil
}
