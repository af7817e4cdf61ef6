package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"cardvault/internal/logging"
	"cardvault/internal/services"
)

// RemoteOptions configure the object-storage client.
type RemoteOptions struct {
	BaseURL string
	// PublicURL is the base of URLs handed to clients when the upload
	// response does not name one. Defaults to BaseURL.
	PublicURL string
	Token     string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Remote stores blobs through an HTTP object-storage API:
// PUT/GET/DELETE {BaseURL}/{path} with a bearer token.
type Remote struct {
	opts   RemoteOptions
	client *fasthttp.Client
}

type putResponse struct {
	URL string `json:"url"`
}

func NewRemote(opts RemoteOptions) (*Remote, error) {
	if opts.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open", "storage.remote_url is required", nil)
	}
	if opts.Token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open", "storage.remote_token is required", nil)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PublicURL == "" {
		opts.PublicURL = opts.BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Remote{
		opts: opts,
		client: &fasthttp.Client{
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
	}, nil
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Save(ctx context.Context, p string, data []byte, contentType string) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	r.prepare(req, fasthttp.MethodPut, cleaned)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	req.SetBody(data)

	if err := r.do(ctx, req, resp); err != nil {
		return "", services.Wrap(services.ErrStorage, "blobstore", "save", cleaned, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return "", services.Wrap(services.ErrStorage, "blobstore", "save",
			fmt.Sprintf("%s: status %d: %s", cleaned, status, truncateBody(resp.Body())), nil)
	}

	var body putResponse
	if len(resp.Body()) > 0 && json.Unmarshal(resp.Body(), &body) == nil && body.URL != "" {
		return body.URL, nil
	}
	return joinURL(r.opts.PublicURL, cleaned), nil
}

// Delete removes the blob. A 404 from the server is not an error.
func (r *Remote) Delete(ctx context.Context, p string) error {
	cleaned, err := CleanPath(p)
	if err != nil {
		return err
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	r.prepare(req, fasthttp.MethodDelete, cleaned)
	if err := r.do(ctx, req, resp); err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "delete", cleaned, err)
	}
	status := resp.StatusCode()
	if status == fasthttp.StatusNotFound {
		r.opts.Logger.Debug("remote blob already absent", logging.String("path", cleaned))
		return nil
	}
	if status < 200 || status >= 300 {
		return services.Wrap(services.ErrStorage, "blobstore", "delete",
			fmt.Sprintf("%s: status %d", cleaned, status), nil)
	}
	return nil
}

func (r *Remote) Open(ctx context.Context, p string) ([]byte, string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, "", err
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	r.prepare(req, fasthttp.MethodGet, cleaned)
	if err := r.do(ctx, req, resp); err != nil {
		return nil, "", services.Wrap(services.ErrStorage, "blobstore", "open", cleaned, err)
	}
	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		return nil, "", services.Wrap(services.ErrNotFound, "blobstore", "open", fmt.Sprintf("blob %s not found", cleaned), nil)
	case status < 200 || status >= 300:
		return nil, "", services.Wrap(services.ErrStorage, "blobstore", "open",
			fmt.Sprintf("%s: status %d", cleaned, status), nil)
	}

	data := append([]byte(nil), resp.Body()...)
	contentType := string(resp.Header.ContentType())
	if contentType == "" {
		contentType = contentTypeFor(cleaned)
	}
	return data, contentType, nil
}

func (r *Remote) prepare(req *fasthttp.Request, method, p string) {
	req.SetRequestURI(joinURL(r.opts.BaseURL, p))
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+r.opts.Token)
}

// do bounds the request by the configured timeout and the context deadline,
// whichever comes first.
func (r *Remote) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := r.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return r.client.DoTimeout(req, resp, timeout)
}

func truncateBody(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
