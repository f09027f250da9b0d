package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"order-console/internal/metrics"
)

const probeText = "Webhook test message"

var ErrInvalidURL = errors.New("malformed webhook URL")

// Sender posts text messages to webhook sinks.
type Sender interface {
	// Send delivers text to url, retrying failed attempts.
	Send(ctx context.Context, url, text string) error
	// Probe posts a single test message without retrying.
	Probe(ctx context.Context, url string) error
}

type Message struct {
	MsgType string  `json:"msg_type"`
	Content Content `json:"content"`
}

type Content struct {
	Text string `json:"text"`
}

func NewTextMessage(text string) Message {
	return Message{MsgType: "text", Content: Content{Text: text}}
}

// StatusError is returned when the sink answers outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// DeliveryError is the terminal failure after all attempts were used.
type DeliveryError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send webhook notification after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type Options struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number to get the wait before the next attempt.
	BaseDelay time.Duration
	// Timeout bounds each attempt when Client is nil.
	Timeout time.Duration
	Client  *http.Client
	Logger  logrus.FieldLogger
}

type transport struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	log         logrus.FieldLogger
}

func NewTransport(opts Options) Sender {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &transport{
		client:      client,
		maxAttempts: maxAttempts,
		baseDelay:   opts.BaseDelay,
		log:         log,
	}
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func (t *transport) Send(ctx context.Context, rawURL, text string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	body, err := json.Marshal(NewTextMessage(text))
	if err != nil {
		return backoff.Permanent(err)
	}

	attempts := 0
	op := func() error {
		attempts++
		err := t.post(ctx, rawURL, body)
		t.observe(rawURL, attempts, err)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: t.baseDelay}, uint64(t.maxAttempts-1)),
		ctx,
	)
	err = backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		t.log.WithFields(logrus.Fields{
			"url":     rawURL,
			"attempt": attempts + 1,
			"max":     t.maxAttempts,
			"wait":    wait.String(),
		}).Info("retrying webhook")
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidURL) {
		return err
	}
	return &DeliveryError{URL: rawURL, Attempts: attempts, Err: err}
}

func (t *transport) Probe(ctx context.Context, rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	body, err := json.Marshal(NewTextMessage(probeText))
	if err != nil {
		return err
	}
	err = t.post(ctx, rawURL, body)
	t.observe(rawURL, 1, err)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

func (t *transport) post(ctx context.Context, rawURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidURL, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (t *transport) observe(rawURL string, attempt int, err error) {
	entry := t.log.WithFields(logrus.Fields{"url": rawURL, "attempt": attempt})
	if err != nil {
		metrics.WebhookAttemptsTotal.WithLabelValues("failure").Inc()
		entry.WithError(err).Warn("webhook attempt failed")
		return
	}
	metrics.WebhookAttemptsTotal.WithLabelValues("success").Inc()
	entry.Debug("webhook attempt succeeded")
}

// linearBackOff waits base*n before the (n+1)th attempt.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() {
	b.n = 0
}
