package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator produces a text completion for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiClient is a Generator backed by a Gemini model.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	m.ResponseMIMEType = "application/json"
	return &GeminiClient{client: client, model: m}, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func (g *GeminiClient) Close() error { return g.client.Close() }

// Gemini uses an LLM prompt for both classification and person extraction.
type Gemini struct {
	gen Generator
}

func NewGemini(gen Generator) *Gemini {
	return &Gemini{gen: gen}
}

const classifyPrompt = `Classify the user request into the candidate labels below.
Return only a JSON object mapping every label to a probability between 0 and 1.

Candidates:
%s
Request: %q`

func (g *Gemini) Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", k, candidates[k])
	}

	raw, err := g.gen.GenerateContent(ctx, fmt.Sprintf(classifyPrompt, sb.String(), text))
	if err != nil {
		return nil, err
	}
	var scores map[string]float64
	if err := json.Unmarshal([]byte(extractJSON(raw, '{', '}')), &scores); err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}

	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = clamp01(scores[k])
	}
	return out, nil
}

const namesPrompt = `List every person name that appears in the text, exactly as written.
Return only a JSON array of strings.

Text: %q`

// PersonNames asks for the names and locates each one in text. Names the
// model invents are dropped.
func (g *Gemini) PersonNames(ctx context.Context, text string) ([]Span, error) {
	raw, err := g.gen.GenerateContent(ctx, fmt.Sprintf(namesPrompt, text))
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(extractJSON(raw, '[', ']')), &names); err != nil {
		return nil, fmt.Errorf("parse names: %w", err)
	}

	var spans []Span
	from := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		idx := strings.Index(text[from:], name)
		if idx < 0 {
			if idx = strings.Index(text, name); idx < 0 {
				continue
			}
		} else {
			idx += from
		}
		spans = append(spans, Span{Text: name, Start: idx, End: idx + len(name), Score: 1})
		from = idx + len(name)
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}

func (g *Gemini) Warmup(ctx context.Context) error {
	_, err := g.Score(ctx, "book a plumber", map[string]string{"create_booking": "Create a booking"})
	return err
}

// extractJSON trims code fences and prose around the outermost JSON value.
func extractJSON(s string, openCh, closeCh byte) string {
	start := strings.IndexByte(s, openCh)
	end := strings.LastIndexByte(s, closeCh)
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
