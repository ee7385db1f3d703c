package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Graph API endpoint
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const (
	// inboxPageSize bounds how much recent mail one run inspects per mailbox.
	// The job tolerates eventual convergence across runs, so a single page of
	// the newest messages is enough.
	inboxPageSize = 100

	selectFields = "id,subject,from,toRecipients,ccRecipients,receivedDateTime,bodyPreview,internetMessageHeaders,conversationId"

	requestTimeout = 30 * time.Second
)

// Client reads mailbox inboxes through the Graph REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Graph client against the production endpoint
func NewClient(logger *slog.Logger) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, logger)
}

// NewClientWithBaseURL creates a Graph client against a custom endpoint.
// Used by tests to point at a local server.
func NewClientWithBaseURL(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// ListInboxMessages lists messages in the mailbox's inbox received on or
// after the given time, newest first as delivered by the API.
func (c *Client) ListInboxMessages(ctx context.Context, token, mailbox string, since time.Time) ([]Message, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("receivedDateTime ge %s", since.UTC().Format(time.RFC3339)))
	q.Set("$select", selectFields)
	q.Set("$top", fmt.Sprintf("%d", inboxPageSize))
	q.Set("$orderby", "receivedDateTime desc")

	endpoint := fmt.Sprintf("%s/users/%s/mailFolders/Inbox/messages?%s",
		c.baseURL, url.PathEscape(mailbox), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inbox request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inbox request failed for %s: %w", mailbox, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inbox request for %s returned status %d: %s", mailbox, resp.StatusCode, string(body))
	}

	var list messageListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode inbox response for %s: %w", mailbox, err)
	}

	if c.logger != nil {
		c.logger.Debug("fetched inbox messages",
			slog.String("mailbox", mailbox),
			slog.Int("count", len(list.Value)))
	}

	return list.Value, nil
}
