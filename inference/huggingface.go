package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HFClient calls the Hugging Face Inference API.
type HFClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHFClient(baseURL, token string, timeout time.Duration) *HFClient {
	return &HFClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  newHTTPClient(timeout),
	}
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    hfOptions      `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// run posts one request to /models/<id> and decodes the response into out.
func (c *HFClient) run(ctx context.Context, modelID string, req hfRequest, out any) error {
	req.Options.WaitForModel = true
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+modelID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("huggingface error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HFSummarizer runs a seq2seq summarization model.
type HFSummarizer struct {
	client   *HFClient
	modelID  string
	maxChars int
	model    *Model
}

var _ Summarizer = (*HFSummarizer)(nil)

func NewHFSummarizer(client *HFClient, modelID string, maxChars int) *HFSummarizer {
	s := &HFSummarizer{client: client, modelID: modelID, maxChars: maxChars}
	s.model = NewModel(modelID, func(ctx context.Context) error {
		_, err := s.generate(ctx, "warmup")
		return err
	})
	return s
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

func (s *HFSummarizer) generate(ctx context.Context, text string) (string, error) {
	var out []hfSummary
	err := s.client.run(ctx, s.modelID, hfRequest{
		Inputs: text,
		Parameters: map[string]any{
			"num_beams":            4,
			"do_sample":            false,
			"min_length":           0,
			"max_length":           160,
			"length_penalty":       1.0,
			"no_repeat_ngram_size": 3,
		},
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("no summary returned")
	}
	return out[0].SummaryText, nil
}

func (s *HFSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if err := s.model.Ensure(ctx); err != nil {
		return "", err
	}
	summary, err := s.generate(ctx, text)
	if err != nil {
		return "", err
	}
	return truncateRunes(strings.TrimSpace(summary), s.maxChars), nil
}

func (s *HFSummarizer) Ready() bool {
	return s.model.Ready()
}

func (s *HFSummarizer) Warm(ctx context.Context) error {
	return s.model.Ensure(ctx)
}

// HFClassifier turns a five-way star rating model into a positivity score.
type HFClassifier struct {
	client  *HFClient
	modelID string
	model   *Model
}

var _ Classifier = (*HFClassifier)(nil)

func NewHFClassifier(client *HFClient, modelID string) *HFClassifier {
	c := &HFClassifier{client: client, modelID: modelID}
	c.model = NewModel(modelID, func(ctx context.Context) error {
		_, err := c.score(ctx, "warmup")
		return err
	})
	return c
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// The API nests results per input for text classification, but some
// deployments return a flat list.
func decodeLabels(raw json.RawMessage) ([]hfLabel, error) {
	var nested [][]hfLabel
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("no labels returned")
		}
		return nested[0], nil
	}
	var flat []hfLabel
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return flat, nil
}

// starRating reads "4 stars" or "LABEL_3" as a 1-based star count.
func starRating(label string) (int, bool) {
	label = strings.TrimSpace(strings.ToUpper(label))
	if rest, ok := strings.CutPrefix(label, "LABEL_"); ok {
		n, err := strconv.Atoi(rest)
		return n + 1, err == nil
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	return n, err == nil
}

func (c *HFClassifier) score(ctx context.Context, text string) (float64, error) {
	var raw json.RawMessage
	if err := c.client.run(ctx, c.modelID, hfRequest{Inputs: text}, &raw); err != nil {
		return 0, err
	}
	labels, err := decodeLabels(raw)
	if err != nil {
		return 0, err
	}

	var positive float64
	seen := false
	for _, l := range labels {
		stars, ok := starRating(l.Label)
		if !ok {
			continue
		}
		seen = true
		if stars >= 4 {
			positive += l.Score
		}
	}
	if !seen {
		return 0, fmt.Errorf("unexpected labels from %s", c.modelID)
	}

	return clamp01(positive), nil
}

func (c *HFClassifier) Classify(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	if err := c.model.Ensure(ctx); err != nil {
		return 0, err
	}
	return c.score(ctx, text)
}

func (c *HFClassifier) Ready() bool {
	return c.model.Ready()
}

func (c *HFClassifier) Warm(ctx context.Context) error {
	return c.model.Ensure(ctx)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
