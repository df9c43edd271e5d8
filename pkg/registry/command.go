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

// SendCommand posts a named command message to one device through the cloud
// command endpoint. endpoint may be empty, in which case the registry base
// URL is used; it exists because command traffic can be served from a
// different host than the management API.
//
// Errors:
//
//    - hivectl-error-validation -- app, device, or command name missing
//    - hivectl-error-transport -- the command endpoint is unreachable
//    - hivectl-error-server -- the command endpoint answered with a non-2xx status
func (c *Client) SendCommand(ctx context.Context, endpoint, app, device, command string, payload json.RawMessage) error {
	if app == "" {
		return hiveapi.ErrorValidation("missing app argument and no default app specified in config file")
	}
	if device == "" {
		return hiveapi.ErrorValidation("missing device id")
	}
	if command == "" {
		return hiveapi.ErrorValidation("missing command name; use --command")
	}
	if endpoint == "" {
		endpoint = c.BaseURL
	}
	endpoint = strings.TrimRight(endpoint, "/")

	target := fmt.Sprintf("%s/api/command/v1alpha1/apps/%s/devices/%s?command=%s",
		endpoint, url.PathEscape(app), url.PathEscape(device), url.QueryEscape(command))

	ctx, span := tracing.Start(ctx, "registry.command")
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.SpanAttrResourceKind, hiveapi.KindDevice.String()),
		attribute.String(tracing.SpanAttrResourceID, device),
	)
	logger := logging.Ctx(ctx)
	logger.Debug("command", "POST %s", target)

	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return hiveapi.ErrorValidation(fmt.Sprintf("cannot build command request: %s", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		err = hiveapi.ErrorTransport(fmt.Sprintf("cannot send command %q to device %q", command, device), err)
		tracing.SetSpanError(ctx, err)
		return err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	span.SetAttributes(attribute.Int(tracing.SpanAttrHTTPStatus, resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = hiveapi.ErrorServer(resp.Status, extractMessage(data))
		tracing.SetSpanError(ctx, err)
		return err
	}
	return nil
}
