package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Backboard talks to the Backboard.io assistant API. One assistant is created
// lazily and reused for the life of the process; each question runs on its
// own thread.
type Backboard struct {
	baseURL          string
	apiKey           string
	client           *http.Client
	maxResponseBytes int64

	mu          sync.Mutex
	assistantID string
}

// NewBackboard builds a Backboard enricher.
func NewBackboard(baseURL, apiKey string, timeout time.Duration, maxResponseBytes int64) *Backboard {
	if baseURL == "" {
		baseURL = "https://app.backboard.io/api"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = 1 * 1024 * 1024
	}
	return &Backboard{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		apiKey:           apiKey,
		maxResponseBytes: maxResponseBytes,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enrich asks the assistant to validate the clause for the category and, when
// the verdict is affirmative, to cite the relevant GDPR article. A failed
// citation call still returns the validation; the match is worth more with
// half an annotation than with none.
func (b *Backboard) Enrich(ctx context.Context, categoryID, clause string) (*Annotation, error) {
	prompts, ok := categoryPrompts[categoryID]
	if !ok {
		return nil, nil
	}

	validation, err := b.ask(ctx, validationPrompt(prompts.validation, clause))
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	ann := &Annotation{Validation: validation}

	if strings.Contains(strings.ToUpper(validation), "YES") {
		citation, err := b.ask(ctx, citationPrompt(prompts.gdprArticle))
		if err == nil {
			ann.Citation = citation
		}
	}
	return ann, nil
}

// ask runs one prompt through the assistant/thread/message flow.
func (b *Backboard) ask(ctx context.Context, prompt string) (string, error) {
	assistantID, err := b.ensureAssistant(ctx)
	if err != nil {
		return "", err
	}

	var thread struct {
		ThreadID string `json:"thread_id"`
	}
	if err := b.postJSON(ctx, fmt.Sprintf("/assistants/%s/threads", assistantID), map[string]any{}, &thread); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if thread.ThreadID == "" {
		return "", fmt.Errorf("create thread: empty thread_id")
	}

	form := url.Values{}
	form.Set("content", prompt)
	form.Set("stream", "false")

	var message struct {
		Content string `json:"content"`
	}
	if err := b.postForm(ctx, fmt.Sprintf("/threads/%s/messages", thread.ThreadID), form, &message); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return message.Content, nil
}

func (b *Backboard) ensureAssistant(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assistantID != "" {
		return b.assistantID, nil
	}

	var created struct {
		AssistantID string `json:"assistant_id"`
	}
	payload := map[string]any{
		"name":          "PolicyX-Ray Analyzer",
		"system_prompt": systemPrompt,
	}
	if err := b.postJSON(ctx, "/assistants", payload, &created); err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	if created.AssistantID == "" {
		return "", fmt.Errorf("create assistant: empty assistant_id")
	}
	b.assistantID = created.AssistantID
	return b.assistantID, nil
}

func (b *Backboard) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return b.post(ctx, path, "application/json", strings.NewReader(string(body)), out)
}

func (b *Backboard) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return b.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (b *Backboard) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, b.maxResponseBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backboard status %d: %s", resp.StatusCode, truncateForError(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncateForError(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		return s[:max]
	}
	return s
}
