package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const summaryPrompt = "Summarize the following note in one or two sentences. Reply with the summary only.\n\n"

// OllamaSummarizer generates summaries with a local Ollama model.
type OllamaSummarizer struct {
	baseURL   string
	modelName string
	maxChars  int
	client    *http.Client
	model     *Model
}

var _ Summarizer = (*OllamaSummarizer)(nil)

func NewOllamaSummarizer(baseURL, modelName string, maxChars int, timeout time.Duration) *OllamaSummarizer {
	s := &OllamaSummarizer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelName: modelName,
		maxChars:  maxChars,
		client:    newHTTPClient(timeout),
	}
	s.model = NewModel(modelName, s.checkModel)
	return s
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// checkModel verifies the model has been pulled into Ollama.
func (s *OllamaSummarizer) checkModel(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags response: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == s.modelName || strings.TrimSuffix(m.Name, ":latest") == s.modelName {
			return nil
		}
	}
	return fmt.Errorf("model %s not found in ollama (run: ollama pull %s)", s.modelName, s.modelName)
}

func (s *OllamaSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if err := s.model.Ensure(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  s.modelName,
		Prompt: summaryPrompt + text,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return truncateRunes(strings.TrimSpace(out.Response), s.maxChars), nil
}

func (s *OllamaSummarizer) Ready() bool {
	return s.model.Ready()
}

func (s *OllamaSummarizer) Warm(ctx context.Context) error {
	return s.model.Ensure(ctx)
}
