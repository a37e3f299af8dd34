package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

// ScriptService writes the video script from a brief using Groq
type ScriptService struct {
	groqClient *client.GroqClient
}

// NewScriptService creates a new script service with Groq client
func NewScriptService(groqClient *client.GroqClient) *ScriptService {
	return &ScriptService{groqClient: groqClient}
}

// WriteScript produces a headline and scene-by-scene script
func (s *ScriptService) WriteScript(ctx context.Context, brief *model.Brief) (*model.Script, error) {
	// Use mock response if client is not configured
	if s.groqClient == nil || !s.groqClient.IsConfigured() {
		return s.scriptMock(brief), nil
	}

	systemPrompt := `You are a short-form video scriptwriter. You turn content briefs into
punchy 45-second vertical video scripts: a clickable headline, a one-line hook,
and 4-6 scenes. Each scene has narration (one or two sentences) and a visual
direction (a stock-footage search phrase).
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`

	briefJSON, err := json.Marshal(brief)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brief: %w", err)
	}

	userPrompt := fmt.Sprintf(`Write the script for this brief:
%s

Respond with JSON:
{"headline": "...", "hook": "...", "scenes": [{"narration": "...", "visual": "..."}]}`, string(briefJSON))

	response, err := s.groqClient.ChatCompletion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	var script model.Script
	if err := json.Unmarshal([]byte(extractJSON(response)), &script); err != nil {
		return nil, fmt.Errorf("failed to parse script response: %w", err)
	}
	if script.Headline == "" || len(script.Scenes) == 0 {
		return nil, fmt.Errorf("script response missing headline or scenes")
	}

	return &script, nil
}

func (s *ScriptService) scriptMock(brief *model.Brief) *model.Script {
	title := titleCase(brief.Keyword)
	scenes := make([]model.Scene, 0, len(brief.TalkingPoints)+1)
	scenes = append(scenes, model.Scene{
		Narration: fmt.Sprintf("You have seen %s before, but never like this.", brief.Keyword),
		Visual:    fmt.Sprintf("%s cinematic aerial", brief.Keyword),
	})
	for _, point := range brief.TalkingPoints {
		scenes = append(scenes, model.Scene{
			Narration: point + ".",
			Visual:    brief.Keyword + " close up",
		})
	}

	return &model.Script{
		Headline: fmt.Sprintf("%s, Explained in 45 Seconds", title),
		Hook:     brief.Summary,
		Scenes:   scenes,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
