package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ErrModelLoading is returned while the hosted model is still cold.
var ErrModelLoading = errors.New("model is loading")

// HFClient talks to a Hugging Face style inference endpoint. It serves
// zero-shot classification and token classification from two models.
type HFClient struct {
	baseURL         string
	token           string
	classifierModel string
	nerModel        string
	httpClient      *http.Client
}

// NewHFClient constructs a client. timeout bounds every request.
func NewHFClient(baseURL, token, classifierModel, nerModel string, timeout time.Duration) *HFClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HFClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		token:           token,
		classifierModel: classifierModel,
		nerModel:        nerModel,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Score sends the candidate descriptions as zero-shot labels and maps the
// returned scores back to the candidate keys.
func (c *HFClient) Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byDescription := make(map[string]string, len(candidates))
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		d := candidates[k]
		if d == "" {
			d = k
		}
		byDescription[d] = k
		labels = append(labels, d)
	}

	var resp zeroShotResponse
	req := zeroShotRequest{Inputs: text, Parameters: zeroShotParameters{CandidateLabels: labels}}
	if err := c.doPost(ctx, c.classifierModel, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("zero-shot response has %d labels and %d scores", len(resp.Labels), len(resp.Scores))
	}

	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = 0
	}
	for i, label := range resp.Labels {
		if k, ok := byDescription[label]; ok {
			out[k] = clamp01(resp.Scores[i])
		}
	}
	return out, nil
}

type nerRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters nerParameters `json:"parameters"`
}

type nerParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type nerEntity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Score       float64 `json:"score"`
}

// PersonNames returns the PER entities of the token classification model.
func (c *HFClient) PersonNames(ctx context.Context, text string) ([]Span, error) {
	var entities []nerEntity
	req := nerRequest{Inputs: text, Parameters: nerParameters{AggregationStrategy: "simple"}}
	if err := c.doPost(ctx, c.nerModel, req, &entities); err != nil {
		return nil, err
	}

	var spans []Span
	for _, e := range entities {
		if e.EntityGroup != "PER" {
			continue
		}
		span := Span{Text: strings.TrimSpace(e.Word), Start: e.Start, End: e.End, Score: e.Score}
		if e.Start >= 0 && e.End <= len(text) && e.Start < e.End {
			span.Text = text[e.Start:e.End]
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// Warmup sends a tiny request to both models so cold models start loading.
func (c *HFClient) Warmup(ctx context.Context) error {
	if _, err := c.Score(ctx, "book a plumber", map[string]string{"create_booking": "Create a booking"}); err != nil {
		return fmt.Errorf("classifier warmup: %w", err)
	}
	if _, err := c.PersonNames(ctx, "My name is John Smith"); err != nil {
		return fmt.Errorf("ner warmup: %w", err)
	}
	return nil
}

func (c *HFClient) doPost(ctx context.Context, model string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.do(req, out)
}

func (c *HFClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return ErrModelLoading
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
