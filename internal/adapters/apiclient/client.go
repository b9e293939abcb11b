// Package apiclient implements the session core's collaborator ports
// (catalog fetch, history fetch, send) against the chat API over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// Client talks to the chat API. It implements domain.CharacterCatalog and
// domain.ConversationBackend. Timeouts belong to the injected http.Client.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// ─────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────

type characterPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	BasePrompt   string `json:"basePrompt"`
	GreetingText string `json:"greetingText"`
}

type messagePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type sendPayload struct {
	Content string `json:"content"`
}

type replyPayload struct {
	Message string `json:"message"`
}

// ─────────────────────────────────────────────
// Port implementations
// ─────────────────────────────────────────────

func (c *Client) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/characters", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching characters: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching characters: unexpected status %d", res.StatusCode)
	}

	var payload []characterPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding characters: %w", err)
	}

	out := make([]*domain.Character, 0, len(payload))
	for _, p := range payload {
		out = append(out, &domain.Character{
			ID:           domain.CharacterID(p.ID),
			DisplayName:  p.Name,
			Description:  p.Description,
			AvatarRef:    p.Image,
			SystemPrompt: p.BasePrompt,
			Greeting:     p.GreetingText,
		})
	}
	return out, nil
}

func (c *Client) FetchHistory(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messagesURL(id), nil)
	if err != nil {
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching history: unexpected status %d", res.StatusCode)
	}

	var payload []messagePayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}

	out := make([]*domain.Message, 0, len(payload))
	for _, p := range payload {
		out = append(out, &domain.Message{
			ID:          domain.MessageID(p.ID),
			CharacterID: id,
			Role:        domain.ParseRole(p.Role),
			Content:     p.Content,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, id domain.CharacterID, content string) (string, error) {
	body, err := json.Marshal(sendPayload{Content: content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(id), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		// Transport failure: no body to extract a reason from.
		return "", fmt.Errorf("sending message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", sendErrorFromBody(res)
	}

	var payload replyPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding reply: %w", err)
	}
	return payload.Message, nil
}

// sendErrorFromBody turns a non-2xx send response into a *domain.SendError
// when the body carries a textual {"message": ...}; anything else keeps the
// bare status error so the caller falls back to the generic reason.
func sendErrorFromBody(res *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if err == nil && len(data) > 0 {
		var payload replyPayload
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			return &domain.SendError{Reason: payload.Message}
		}
	}
	return fmt.Errorf("sending message: unexpected status %d", res.StatusCode)
}

func (c *Client) messagesURL(id domain.CharacterID) string {
	return c.baseURL + "/characters/" + url.PathEscape(string(id)) + "/messages"
}
