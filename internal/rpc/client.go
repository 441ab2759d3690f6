// Package rpc implements the command channel between the gateway and the
// backend services. Commands are string-keyed, carried as JSON over a private
// HTTP listener; the command name, not the transport, is the stable contract.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"egov/internal/platform/metrics"
	"egov/pkg/faults"
)

// Client dispatches commands to named backend services. One outbound call per
// Send, no retries; retries are the caller's decision.
type Client struct {
	services map[string]string // logical name -> base URL
	http     *http.Client
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewClient builds a dispatcher over a fixed service table. The table is
// wiring-time configuration: sending to a name that is not in it panics.
func NewClient(services map[string]string, timeout time.Duration, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		services: services,
		http:     &http.Client{},
		timeout:  timeout,
		metrics:  m,
	}
}

// Send issues command to the named service and decodes the single reply into
// reply (which may be nil when the caller does not need the body). Faults
// come back tagged; transport failures and malformed replies degrade to
// INTERNAL. The call blocks until a reply, a fault, or the timeout.
func (c *Client) Send(ctx context.Context, service, command string, payload, reply any) error {
	base, ok := c.services[service]
	if !ok {
		panic(fmt.Sprintf("rpc: unknown service %q (not in service table)", service))
	}

	tracer := otel.Tracer("egov/rpc")
	ctx, span := tracer.Start(ctx, "rpc.send",
		trace.WithAttributes(
			attribute.String("rpc.service", service),
			attribute.String("rpc.command", command),
		))
	defer span.End()

	err := c.send(ctx, base, command, payload, reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, faults.From(err).Message)
	}
	if c.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = string(faults.From(err).Kind)
		}
		c.metrics.RPCCalls.WithLabelValues(service, command, outcome).Inc()
	}
	return err
}

func (c *Client) send(ctx context.Context, base, command string, payload, reply any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return faults.Wrap(err, faults.KindInternal, "encode rpc payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/rpc/"+command, bytes.NewReader(body))
	if err != nil {
		return faults.Wrap(err, faults.KindInternal, "build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return faults.Wrap(err, faults.KindInternal, fmt.Sprintf("rpc %s unreachable: %v", command, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeFault(resp.Body)
	}

	if reply == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return faults.Wrap(err, faults.KindInternal, "decode rpc reply")
	}
	return nil
}

// decodeFault is total: a malformed fault body still yields an INTERNAL
// fault rather than an error escaping the dispatcher.
func decodeFault(r io.Reader) error {
	var f faults.Fault
	if err := json.NewDecoder(r).Decode(&f); err != nil || f.Kind == "" {
		return faults.New(faults.KindInternal, "backend service returned an unreadable fault")
	}
	return &f
}
