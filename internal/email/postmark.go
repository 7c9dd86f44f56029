package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

// Client sends auth emails through the Postmark REST API. Delivery is
// best-effort: callers fire it from a goroutine and never block a response
// on it.
type Client struct {
	serverToken string
	fromEmail   string
	frontendURL string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail, frontendURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		frontendURL: frontendURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendConfirmation sends the account-confirmation code.
func (c *Client) SendConfirmation(ctx context.Context, toEmail, name, code string) error {
	link := c.frontendURL + "/auth/confirm-account"
	textBody := fmt.Sprintf(
		"Hi %s, you created an UpTask account. Confirm it at %s using the code %s.\n\nThe code expires in 15 minutes.",
		name, link, code,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s, you created an UpTask account. To continue, confirm your account.</p><p><a href="%s">Confirm account</a></p><p>Enter the code: <b>%s</b></p><p>The code expires in 15 minutes.</p>`,
		name, link, code,
	)
	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "UpTask - Confirm your account",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendPasswordReset sends the password-reset code.
func (c *Client) SendPasswordReset(ctx context.Context, toEmail, name, code string) error {
	link := c.frontendURL + "/auth/new-password"
	textBody := fmt.Sprintf(
		"Hi %s, you requested a password reset. Continue at %s using the code %s.\n\nIf you didn't request this, ignore this message. The code expires in 15 minutes.",
		name, link, code,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s, you requested a password reset. If you didn't, please ignore this message.</p><p><a href="%s">Reset password</a></p><p>Enter the code: <b>%s</b></p><p>The code expires in 15 minutes.</p>`,
		name, link, code,
	)
	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "UpTask - Reset your password",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// send posts the message to Postmark, retrying transient failures with
// exponential backoff before giving up.
func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Postmark-Server-Token", c.serverToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send email: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("postmark API error: status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
