// -----------------------------------------------------------------------
// Library Client - HTTP client for the remote research-library API
// Resolves item attachments, downloads documents, uploads summary notes
// -----------------------------------------------------------------------

package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
)

// maxDownloadBytes bounds a single attachment download
const maxDownloadBytes = 100 * 1024 * 1024

// Client talks to a Zotero-style library web API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.LibraryService = (*Client)(nil)

// NewClient creates a library API client from configuration
func NewClient(config *common.LibraryConfig, logger arbor.ILogger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("library base URL is required")
	}

	timeout := 60 * time.Second
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid library timeout '%s': %w", config.Timeout, err)
		}
		timeout = parsed
	}

	base := strings.TrimSuffix(config.BaseURL, "/")
	if config.UserID != "" {
		base = fmt.Sprintf("%s/users/%s", base, config.UserID)
	}

	return &Client{
		baseURL: base,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// attachmentEnvelope is the wire shape of an attachment child item
type attachmentEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		ItemType    string `json:"itemType"`
		Title       string `json:"title"`
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		LinkMode    string `json:"linkMode"`
	} `json:"data"`
}

// FetchAttachmentMetadata resolves the item's primary document attachment.
// The first stored-file attachment child wins; linked-URL attachments are
// skipped because they carry no downloadable bytes.
func (c *Client) FetchAttachmentMetadata(ctx context.Context, itemID string) (*interfaces.AttachmentRef, error) {
	url := fmt.Sprintf("%s/items/%s/children?itemType=attachment", c.baseURL, itemID)

	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment metadata for item %s: %w", itemID, err)
	}

	var children []attachmentEnvelope
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, fmt.Errorf("failed to decode attachment metadata for item %s: %w", itemID, err)
	}

	for _, child := range children {
		if child.Data.ItemType != "attachment" {
			continue
		}
		if strings.HasPrefix(child.Data.LinkMode, "linked_url") {
			continue
		}
		return &interfaces.AttachmentRef{
			Key:         child.Key,
			ItemID:      itemID,
			Title:       child.Data.Title,
			Filename:    child.Data.Filename,
			ContentType: child.Data.ContentType,
		}, nil
	}

	return nil, interfaces.ErrNoAttachment
}

// DownloadAttachment retrieves the attachment's file bytes
func (c *Client) DownloadAttachment(ctx context.Context, ref *interfaces.AttachmentRef) ([]byte, error) {
	url := fmt.Sprintf("%s/items/%s/file", c.baseURL, ref.Key)

	data, err := c.get(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment %s: %w", ref.Key, err)
	}

	c.logger.Debug().
		Str("attachment", ref.Key).
		Int("bytes", len(data)).
		Msg("Attachment downloaded")

	return data, nil
}

// noteCreateRequest is the wire shape of a note upload
type noteCreateRequest struct {
	ItemType   string    `json:"itemType"`
	ParentItem string    `json:"parentItem"`
	Note       string    `json:"note"`
	Tags       []noteTag `json:"tags,omitempty"`
}

type noteTag struct {
	Tag string `json:"tag"`
}

// PublishNote uploads content as a child note of the item
func (c *Client) PublishNote(ctx context.Context, itemID, content, tag string) (string, error) {
	payload := []noteCreateRequest{{
		ItemType:   "note",
		ParentItem: itemID,
		Note:       content,
	}}
	if tag != "" {
		payload[0].Tags = []noteTag{{Tag: tag}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode note: %w", err)
	}

	url := fmt.Sprintf("%s/items", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("note upload failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read note upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("note upload failed with status %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	// The API returns successful keys indexed by request position
	var result struct {
		Successful map[string]struct {
			Key string `json:"key"`
		} `json:"successful"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode note upload response: %w", err)
	}

	if entry, ok := result.Successful["0"]; ok && entry.Key != "" {
		c.logger.Debug().Str("item", itemID).Str("note", entry.Key).Msg("Summary note published")
		return entry.Key, nil
	}

	return "", fmt.Errorf("note upload for item %s reported no created key", itemID)
}

// get performs an authenticated GET and returns the response body
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrNoAttachment
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncateBody(body))
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}
}

func truncateBody(body []byte) string {
	const max = 256
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
