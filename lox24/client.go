package lox24

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lox24/cognito-sms-bridge/mask"
)

// AuthTokenHeader carries the LOX24 API token on every request.
const AuthTokenHeader = "X-LOX24-AUTH-TOKEN"

// DefaultTimeout bounds one dispatch including connect, send and read.
// When it elapses the in-flight request is aborted.
const DefaultTimeout = 10 * time.Second

const smsPath = "/sms"

// Message describes one outbound SMS. CallbackData, DeliveryAt and
// VoiceLang are optional and omitted from the wire format when unset.
type Message struct {
	Phone        string
	Text         string
	SenderID     string
	ServiceCode  string
	CallbackData string
	DeliveryAt   int64
	VoiceLang    string
}

// smsRequest is the wire shape of POST /sms.
type smsRequest struct {
	Phone        string `json:"phone"`
	Text         string `json:"text"`
	SenderID     string `json:"sender_id"`
	ServiceCode  string `json:"service_code"`
	IsUnicode    bool   `json:"is_unicode"`
	CallbackData string `json:"callback_data,omitempty"`
	DeliveryAt   int64  `json:"delivery_at,omitempty"`
	VoiceLang    string `json:"voice_lang,omitempty"`
}

// Result is returned for an accepted dispatch. Payload holds the parsed
// response body, or the raw body string when it is not valid JSON.
type Result struct {
	StatusCode int
	Payload    any
}

// GatewayError is a classified dispatch failure. StatusCode preserves
// the gateway's numeric status; it is zero for timeouts, which never
// produce a response.
type GatewayError struct {
	StatusCode int
	Message    string
}

// Error returns the classified message with the status code.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("lox24: %s (status %d)", e.Message, e.StatusCode)
}

// Client sends messages through the LOX24 HTTP API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	timeout    time.Duration
	log        *slog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL replaces the https://<host> base URL entirely. Tests use
// this to point the client at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout replaces the per-dispatch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// New creates a client for the given API host. The host is contacted
// over HTTPS.
func New(host, authToken string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://" + host,
		authToken:  authToken,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send dispatches one message and classifies the response. HTTP 201 is
// the only success status; any other status, transport failure or
// timeout is an error. A 201 with an unparseable body is still a
// success carrying the raw body.
func (c *Client) Send(ctx context.Context, msg Message) (*Result, error) {
	body := smsRequest{
		Phone:        msg.Phone,
		Text:         msg.Text,
		SenderID:     msg.SenderID,
		ServiceCode:  msg.ServiceCode,
		IsUnicode:    isUnicode(msg.Text),
		CallbackData: msg.CallbackData,
		DeliveryAt:   msg.DeliveryAt,
		VoiceLang:    msg.VoiceLang,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+smsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AuthTokenHeader, c.authToken)

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Error("Gateway request timed out",
				slog.String("phone", mask.Phone(msg.Phone)),
				slog.Duration("timeout", c.timeout))
			return nil, &GatewayError{StatusCode: 0, Message: fmt.Sprintf("no response within %s", c.timeout)}
		}
		return nil, fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		gwErr := &GatewayError{StatusCode: resp.StatusCode, Message: classifyStatus(resp.StatusCode)}
		c.log.Error("Gateway rejected SMS",
			slog.Int("status", resp.StatusCode),
			slog.String("reason", gwErr.Message),
			slog.String("phone", mask.Phone(msg.Phone)),
			slog.Duration("duration", time.Since(start)))
		return nil, gwErr
	}

	result := &Result{StatusCode: resp.StatusCode}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// A 201 with a malformed body is still an accepted dispatch.
		result.Payload = string(raw)
	} else {
		result.Payload = parsed
	}

	c.log.Debug("Gateway accepted SMS",
		slog.Int("status", resp.StatusCode),
		slog.String("phone", mask.Phone(msg.Phone)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// classifyStatus maps every LOX24 status to a fixed operator-facing
// message. Unknown statuses get a generic fallback.
func classifyStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "invalid input data"
	case http.StatusUnauthorized:
		return "invalid or inactive API token"
	case http.StatusPaymentRequired:
		return "insufficient account funds"
	case http.StatusForbidden:
		return "account is not activated"
	case http.StatusNotFound:
		return "unknown API endpoint"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusInternalServerError:
		return "gateway internal error"
	case http.StatusServiceUnavailable:
		return "gateway temporarily unavailable"
	default:
		return "unexpected gateway error"
	}
}

// isUnicode reports whether text requires UCS-2 encoding on the wire,
// true iff any rune is outside 7-bit ASCII.
func isUnicode(text string) bool {
	for _, r := range text {
		if r > 127 {
			return true
		}
	}
	return false
}
