package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

// ResearchService gathers a content brief for a keyword using Groq
type ResearchService struct {
	groqClient *client.GroqClient
}

// NewResearchService creates a new research service with Groq client
func NewResearchService(groqClient *client.GroqClient) *ResearchService {
	return &ResearchService{groqClient: groqClient}
}

// Research produces a brief for the keyword
func (s *ResearchService) Research(ctx context.Context, kw string) (*model.Brief, error) {
	// Use mock response if client is not configured
	if s.groqClient == nil || !s.groqClient.IsConfigured() {
		return s.researchMock(kw), nil
	}

	systemPrompt := `You are a short-form video researcher. Given a topic keyword, produce
a concise content brief: what makes the topic compelling right now, who the
audience is, and 3-5 concrete talking points.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`

	userPrompt := fmt.Sprintf(`Research the topic %q for a 45-second vertical video.
Respond with JSON:
{"summary": "...", "audience": "...", "talkingPoints": ["...", "..."]}`, kw)

	response, err := s.groqClient.ChatCompletion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("research failed: %w", err)
	}

	var parsed struct {
		Summary       string   `json:"summary"`
		Audience      string   `json:"audience"`
		TalkingPoints []string `json:"talkingPoints"`
	}
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse research response: %w", err)
	}
	if parsed.Summary == "" || len(parsed.TalkingPoints) == 0 {
		return nil, fmt.Errorf("research response missing summary or talking points")
	}

	return &model.Brief{
		Keyword:       kw,
		Summary:       parsed.Summary,
		Audience:      parsed.Audience,
		TalkingPoints: parsed.TalkingPoints,
	}, nil
}

func (s *ResearchService) researchMock(kw string) *model.Brief {
	return &model.Brief{
		Keyword:  kw,
		Summary:  fmt.Sprintf("Why %s is capturing attention right now.", kw),
		Audience: "short-form video viewers",
		TalkingPoints: []string{
			fmt.Sprintf("What %s actually is", kw),
			fmt.Sprintf("The surprising side of %s", kw),
			fmt.Sprintf("How to experience %s yourself", kw),
		},
	}
}

// extractJSON trims any stray prose around a JSON object. Models
// occasionally wrap output in markdown fences despite instructions.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
