package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/config"
)

// Response is a 2xx reply from the backend.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport posts JSON to the analysis backend. Implementations make exactly
// one attempt and report failures as *TransportError or *StatusError.
type Transport interface {
	PostJSON(ctx context.Context, path string, body any) (*Response, error)
}

// Client is the resty-backed Transport.
type Client struct {
	client *resty.Client
	log    logrus.FieldLogger
}

func NewClient(cfg *config.Config, log logrus.FieldLogger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BackendURL)
	client.SetTimeout(cfg.RequestTimeout())
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	// Every call is a single user-triggered attempt.
	client.SetRetryCount(0)

	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		client: client,
		log:    log.WithField("component", "backend"),
	}
}

func (c *Client) BaseURL() string {
	return c.client.BaseURL
}

func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	op := http.MethodPost + " " + path
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		terr := NewTransportError(op, err)
		c.log.WithFields(logrus.Fields{
			"op":      op,
			"timeout": terr.Timeout(),
			"elapsed": time.Since(start).String(),
		}).WithError(err).Error("backend request failed")
		return nil, terr
	}

	entry := c.log.WithFields(logrus.Fields{
		"op":      op,
		"status":  resp.StatusCode(),
		"elapsed": resp.Time().String(),
	})

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		serr := &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Detail:     statusDetail(resp.Header().Get("Content-Type"), resp.Body()),
		}
		entry.WithField("detail", serr.Detail).Error("backend returned error status")
		return nil, serr
	}

	entry.Debug("backend request completed")
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, timeout: isTimeout(err)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Decode unmarshals a 2xx body, reporting undecodable JSON as a
// MalformedResponseError. Violations are logged separately from outages.
func Decode(log logrus.FieldLogger, op string, resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return Malformed(log, &MalformedResponseError{Op: op, Err: fmt.Errorf("decode body: %w", err)})
	}
	return nil
}

// Malformed logs a contract violation and returns it.
func Malformed(log logrus.FieldLogger, err *MalformedResponseError) error {
	if log != nil {
		log.WithFields(logrus.Fields{
			"op":                 err.Op,
			"field":              err.Field,
			"contract_violation": true,
		}).WithError(err.Err).Warn("backend response does not match the expected contract")
	}
	return err
}
