package api

//go:generate mockery -name Client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skiff-run/skiff/pkg/errors"
)

const (
	// DefaultServer is the Skiff API server used when the user config doesn't
	// specify another one.
	DefaultServer = "https://api.skiff.run"

	requestTimeout = 1 * time.Minute

	jsonContentType = "application/json"
)

// Client is used for communicating with the Skiff API server. Each deployment
// run constructs its own client, so there's no process-wide SDK state.
type Client interface {
	Stat(path string) (FileInfo, error)
	Mkdir(path string) error
	Write(path string, contents io.Reader) error
	GetSubdomain(name string) (Subdomain, error)
	CreateSubdomain(name, rootDirUID string) (Subdomain, error)
	UpdateSubdomain(name, rootDirUID string) error
	Whoami() (Account, error)
	GetVersion() (string, error)
}

// FileInfo is the metadata the Skiff API tracks for a remote file or
// directory. The UID is stable across renames, so it's the identity used
// when comparing directories.
type FileInfo struct {
	UID   string `json:"uid"`
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Subdomain is a binding from a public subdomain to the remote directory
// that's served at it. The hosting layer maintains at most one binding per
// name.
type Subdomain struct {
	Name       string `json:"name"`
	RootDirUID string `json:"root_dir_uid"`
}

// Account identifies the user that owns an auth token.
type Account struct {
	Username string `json:"username"`
}

type client struct {
	server string
	token  string
	http   *http.Client
}

// New creates a client for the Skiff API server at `server`, authenticating
// with `token`. If `server` is empty, the default Skiff server is used.
func New(server, token string) Client {
	if server == "" {
		server = DefaultServer
	}
	return &client{
		server: strings.TrimRight(server, "/"),
		token:  token,
		http:   http.DefaultClient,
	}
}

func (c *client) Stat(path string) (FileInfo, error) {
	var fi FileInfo
	err := c.do(request{
		method: "POST",
		path:   "/fs/stat",
		body:   map[string]interface{}{"path": path},
		result: &fi,
	})
	return fi, err
}

func (c *client) Mkdir(path string) error {
	return c.do(request{
		method: "POST",
		path:   "/fs/mkdir",
		body: map[string]interface{}{
			"path":                   path,
			"create_missing_parents": true,
		},
	})
}

func (c *client) Write(path string, contents io.Reader) error {
	return c.do(request{
		method: "PUT",
		path:   "/fs/write",
		query: url.Values{
			"path":                   {path},
			"overwrite":              {"true"},
			"create_missing_parents": {"true"},
		},
		rawBody: contents,
	})
}

func (c *client) GetSubdomain(name string) (Subdomain, error) {
	var sub Subdomain
	err := c.do(request{
		method: "GET",
		path:   "/hosting/subdomains/" + url.PathEscape(name),
		result: &sub,
	})
	return sub, err
}

func (c *client) CreateSubdomain(name, rootDirUID string) (Subdomain, error) {
	var sub Subdomain
	err := c.do(request{
		method: "POST",
		path:   "/hosting/subdomains",
		body: map[string]interface{}{
			"name":         name,
			"root_dir_uid": rootDirUID,
		},
		result: &sub,
	})
	return sub, err
}

func (c *client) UpdateSubdomain(name, rootDirUID string) error {
	return c.do(request{
		method: "PUT",
		path:   "/hosting/subdomains/" + url.PathEscape(name),
		body:   map[string]interface{}{"root_dir_uid": rootDirUID},
	})
}

func (c *client) Whoami() (Account, error) {
	var account Account
	err := c.do(request{method: "GET", path: "/whoami", result: &account})
	return account, err
}

func (c *client) GetVersion() (string, error) {
	var resp struct {
		Version string `json:"version"`
	}
	err := c.do(request{method: "GET", path: "/version", result: &resp})
	return resp.Version, err
}

type request struct {
	method string
	path   string
	query  url.Values

	// body is marshalled to JSON. rawBody is sent as-is. At most one of the
	// two may be set.
	body    interface{}
	rawBody io.Reader

	// result is decoded from the response body if the request succeeds.
	result interface{}
}

func (c *client) do(req request) error {
	body := req.rawBody
	contentType := ""
	if req.body != nil {
		jsonBytes, err := json.Marshal(req.body)
		if err != nil {
			return errors.WithContext(err, "marshal request")
		}
		body = bytes.NewReader(jsonBytes)
		contentType = jsonContentType
	}

	httpReq, err := http.NewRequest(req.method, c.server+req.path, body)
	if err != nil {
		return errors.WithContext(err, "new request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	httpReq = httpReq.WithContext(ctx)

	if req.query != nil {
		httpReq.URL.RawQuery = req.query.Encode()
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("X-Request-Id", uuid.New().String())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.WithContext(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if req.result != nil {
		if err := json.NewDecoder(resp.Body).Decode(req.result); err != nil {
			return errors.WithContext(err, "decode response")
		}
	}
	return nil
}

// decodeError converts an error response into an Error. The server usually
// responds with a structured JSON error, but proxies in front of it may
// return plain text, so we fall back to using the raw body as the message.
func decodeError(resp *http.Response) error {
	apiErr := Error{Status: resp.StatusCode}

	body, err := ioutil.ReadAll(resp.Body)
	if err == nil {
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return apiErr
		}
		apiErr.Code = ""
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
