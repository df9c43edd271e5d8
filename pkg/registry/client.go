package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
	"github.com/hivetools/hivectl/pkg/tracing"
)

// Client performs authenticated resource calls against one registry.
// The token is attached as-is: validating or refreshing it is the session's
// job, and happens before a Client is ever constructed.
//
// Every call is single-shot. There is no retry, no backoff, and no
// normalization of server answers ("delete of something absent" surfaces the
// server's 404 untouched).
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client // nil means http.DefaultClient
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) collectionURL(ref hiveapi.Ref) string {
	base := strings.TrimRight(c.BaseURL, "/")
	switch ref.Kind {
	case hiveapi.KindDevice:
		return fmt.Sprintf("%s/api/v1/apps/%s/devices", base, url.PathEscape(ref.App))
	default:
		return base + "/api/v1/apps"
	}
}

func (c *Client) itemURL(ref hiveapi.Ref) string {
	return c.collectionURL(ref) + "/" + url.PathEscape(ref.ID)
}

// Create posts a new resource to its collection path. The payload travels
// uninterpreted under "spec"; an absent payload becomes an empty object.
//
// Errors:
//
//    - hivectl-error-validation -- the ref is incomplete
//    - hivectl-error-transport -- the registry is unreachable
//    - hivectl-error-server -- the registry answered with a non-2xx status
func (c *Client) Create(ctx context.Context, ref hiveapi.Ref, spec json.RawMessage) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if len(spec) == 0 {
		spec = json.RawMessage(`{}`)
	}
	meta := hiveapi.Metadata{Name: ref.ID}
	if ref.Kind == hiveapi.KindDevice {
		meta.Application = ref.App
	}
	body, err := json.Marshal(hiveapi.CreateRequest{Metadata: meta, Spec: spec})
	if err != nil {
		return hiveapi.ErrorValidation(fmt.Sprintf("cannot serialize create request for %s: %s", ref, err))
	}
	_, err = c.do(ctx, "create", http.MethodPost, c.collectionURL(ref), ref, body)
	return err
}

// Read fetches the raw body of a resource. The body is returned without any
// local schema interpretation.
//
// Errors:
//
//    - hivectl-error-validation -- the ref is incomplete
//    - hivectl-error-transport -- the registry is unreachable
//    - hivectl-error-server -- the registry answered with a non-2xx status
func (c *Client) Read(ctx context.Context, ref hiveapi.Ref) ([]byte, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return c.do(ctx, "read", http.MethodGet, c.itemURL(ref), ref, nil)
}

// Update replaces a resource with the given body, verbatim.
//
// Errors:
//
//    - hivectl-error-validation -- the ref is incomplete
//    - hivectl-error-transport -- the registry is unreachable
//    - hivectl-error-server -- the registry answered with a non-2xx status
func (c *Client) Update(ctx context.Context, ref hiveapi.Ref, body json.RawMessage) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	_, err := c.do(ctx, "update", http.MethodPut, c.itemURL(ref), ref, body)
	return err
}

// Delete removes a resource. Whatever status the server reports is passed
// through; deleting something that is already gone is an error if the server
// says so.
//
// Errors:
//
//    - hivectl-error-validation -- the ref is incomplete
//    - hivectl-error-transport -- the registry is unreachable
//    - hivectl-error-server -- the registry answered with a non-2xx status
func (c *Client) Delete(ctx context.Context, ref hiveapi.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	_, err := c.do(ctx, "delete", http.MethodDelete, c.itemURL(ref), ref, nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, target string, ref hiveapi.Ref, body []byte) ([]byte, error) {
	ctx, span := tracing.Start(ctx, "registry."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.SpanAttrResourceKind, ref.Kind.String()),
		attribute.String(tracing.SpanAttrResourceID, ref.ID),
	)
	logger := logging.Ctx(ctx)
	logger.Debug("registry", "%s %s", method, target)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, hiveapi.ErrorValidation(fmt.Sprintf("cannot build request for %s: %s", ref, err))
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		err = hiveapi.ErrorTransport(fmt.Sprintf("cannot %s %s", op, ref), err)
		tracing.SetSpanError(ctx, err)
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = hiveapi.ErrorTransport(fmt.Sprintf("cannot read response while trying to %s %s", op, ref), err)
		tracing.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.SpanAttrHTTPStatus, resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = hiveapi.ErrorServer(resp.Status, extractMessage(data))
		tracing.SetSpanError(ctx, err)
		return nil, err
	}
	return data, nil
}

// extractMessage digs a human-readable explanation out of an error response
// body. Registries answer with {"message": ...} or {"error": ...}; anything
// else is passed through trimmed.
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "(no detail in response body)"
	}
	return s
}
