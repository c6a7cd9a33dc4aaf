package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/commercemesh/order-service/pkg/config"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
)

// Client talks to the eventing sidecar over HTTP. The sidecar exposes
// pub/sub publishing at /v1.0/publish/<pubsub>/<topic> and service
// invocation at /v1.0/invoke/<app>/method/<method>.
type Client struct {
	baseURL        string
	pubSubName     string
	publishTimeout time.Duration
	httpClient     *http.Client
}

// Publisher is the outbound event surface used by the outbox publisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Invoker is the service-invocation surface used by federated clients.
type Invoker interface {
	Invoke(ctx context.Context, appID, method string, body []byte, headers map[string]string) ([]byte, error)
}

func New(cfg config.BrokerConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		pubSubName:     cfg.PubSubName,
		publishTimeout: cfg.PublishTimeout,
		httpClient:     &http.Client{Timeout: cfg.InvokeTimeout},
	}
}

// Publish posts the payload to the given topic.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if c.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.publishTimeout)
		defer cancel()
	}
	url := fmt.Sprintf("%s/v1.0/publish/%s/%s", c.baseURL, c.pubSubName, topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build publish request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("publish to %s", topic))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("publish to %s returned status %d", topic, resp.StatusCode))
	}
	return nil
}

// Invoke posts the body to another service through the sidecar and returns
// the raw response. Extra headers (the forwarded identity header) are copied
// onto the request verbatim.
func (c *Client) Invoke(ctx context.Context, appID, method string, body []byte, headers map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/v1.0/invoke/%s/method/%s", c.baseURL, appID, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build invoke request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("invoke %s", appID))
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read response from %s", appID))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("invoke %s returned status %d", appID, resp.StatusCode))
	}
	return payload, nil
}

// Ping checks sidecar reachability for health probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1.0/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("sidecar health returned status %d", resp.StatusCode)
	}
	return nil
}

// Subscription is one entry of the subscription manifest served to the
// broker so it can route topics to delivery endpoints.
type Subscription struct {
	PubSubName string `json:"pubsubName"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}

// EventEnvelope is the inbound delivery wrapper: the topic plus the
// topic-specific data document.
type EventEnvelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Ack is the reply the broker expects on successful delivery.
type Ack struct {
	Status int `json:"status"`
}
