package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"forgestudio/internal/caching"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o-mini"

	// aiRequestTimeout bounds a single completion call; analysis of a large
	// requirement can legitimately take tens of seconds.
	aiRequestTimeout = 60 * time.Second

	analysisCacheTTL = 24 * time.Hour
)

var ErrAIUnavailable = errors.New("ai provider unavailable")

// RequirementAnalysis is the structured output of analyzing a requirement.
type RequirementAnalysis struct {
	Summary        string           `json:"summary"`
	KeyFeatures    []string         `json:"keyFeatures"`
	Complexity     string           `json:"complexity"`
	EstimatedHours int              `json:"estimatedHours"`
	Suggestions    []string         `json:"suggestions"`
	Modules        []SuggestedModule `json:"modules"`
}

type SuggestedModule struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	Priority       string          `json:"priority"`
	EstimatedHours int             `json:"estimatedHours"`
	Tasks          []SuggestedTask `json:"tasks"`
}

type SuggestedTask struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	Priority       string   `json:"priority"`
	EstimatedHours int      `json:"estimatedHours"`
	TechStack      []string `json:"techStack"`
	FilePath       string   `json:"filePath"`
}

// AIService wraps the OpenAI chat completions API for requirement analysis
// and code generation.
type AIService interface {
	AnalyzeRequirement(ctx context.Context, title, content string) (*RequirementAnalysis, error)
	GenerateCode(ctx context.Context, description string, techStack []string, filePath string) (string, error)
}

type aiService struct {
	apiKey   string
	baseURL  string
	model    string
	http     *http.Client
	cacheSvc caching.CacheService
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewAIService(apiKey string, cacheSvc caching.CacheService) AIService {
	return &aiService{
		apiKey:   apiKey,
		baseURL:  openAIBaseURL,
		model:    openAIModel,
		http:     &http.Client{Timeout: aiRequestTimeout},
		cacheSvc: cacheSvc,
	}
}

// AnalyzeRequirement asks the model for a structured breakdown of a
// requirement. Identical content hits the analysis cache instead of the API.
func (s *aiService) AnalyzeRequirement(ctx context.Context, title, content string) (*RequirementAnalysis, error) {
	cacheKey := caching.HashContent(title + "\n" + content)
	if cached, err := s.cacheSvc.GetAnalysis(ctx, cacheKey); err == nil && cached != "" {
		var analysis RequirementAnalysis
		if json.Unmarshal([]byte(cached), &analysis) == nil {
			return &analysis, nil
		}
	}

	systemPrompt := `You are a senior software architect. Analyze the requirement and respond with a single JSON object with these fields:
"summary" (string), "keyFeatures" (array of strings), "complexity" ("LOW"|"MEDIUM"|"HIGH"),
"estimatedHours" (number), "suggestions" (array of strings),
"modules" (array of {"name","description","type","priority","estimatedHours","tasks"}),
where each task is {"title","description","type","priority","estimatedHours","techStack","filePath"}.
Respond with JSON only, no prose.`
	userPrompt := fmt.Sprintf("Title: %s\n\nRequirement:\n%s", title, content)

	raw, err := s.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var analysis RequirementAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	if payload, err := json.Marshal(analysis); err == nil {
		if err := s.cacheSvc.SetAnalysis(ctx, cacheKey, string(payload), analysisCacheTTL); err != nil {
			log.Printf("WARN: failed to cache analysis: %v", err)
		}
	}

	return &analysis, nil
}

// GenerateCode produces source code for a task description. The response is
// stripped of markdown fences so handlers can store it as-is.
func (s *aiService) GenerateCode(ctx context.Context, description string, techStack []string, filePath string) (string, error) {
	systemPrompt := "You are an expert software engineer. Generate complete, production-quality code for the requested file. Respond with code only, no explanations."
	userPrompt := fmt.Sprintf("Tech stack: %s\nTarget file: %s\n\nTask:\n%s",
		strings.Join(techStack, ", "), filePath, description)

	raw, err := s.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	return stripCodeFences(raw), nil
}

func (s *aiService) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.apiKey == "" {
		return "", ErrAIUnavailable
	}

	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBytes, &completion); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAIUnavailable, completion.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: status %d", ErrAIUnavailable, resp.StatusCode)
	}

	return completion.Choices[0].Message.Content, nil
}

// extractJSON pulls the outermost JSON object out of a model response that
// may be wrapped in markdown fences or prose.
func extractJSON(raw string) string {
	cleaned := stripCodeFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
