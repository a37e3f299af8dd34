package service

import (
	"context"
	"fmt"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

// AssetService produces the voiceover and stock footage for a script
// via the media microservice.
type AssetService struct {
	mediaClient client.MediaProcessor
}

// NewAssetService creates a new asset service
func NewAssetService(mediaClient client.MediaProcessor) *AssetService {
	return &AssetService{mediaClient: mediaClient}
}

// GenerateAssets synthesizes the voiceover and resolves one clip per
// scene. Caption lines mirror the narration so the renderer can overlay
// them.
func (s *AssetService) GenerateAssets(ctx context.Context, jobID string, script *model.Script) (*model.AssetSet, error) {
	captions := make([]string, 0, len(script.Scenes))
	queries := make([]string, 0, len(script.Scenes))
	for _, scene := range script.Scenes {
		captions = append(captions, scene.Narration)
		queries = append(queries, scene.Visual)
	}

	if s.mediaClient == nil {
		return assetMock(jobID, captions, queries), nil
	}

	voice, err := s.mediaClient.Synthesize(ctx, &client.SynthesizeRequest{
		Lines:     captions,
		OutputKey: fmt.Sprintf("voiceovers/%s.mp3", jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("voiceover synthesis failed: %w", err)
	}

	footage, err := s.mediaClient.ResolveFootage(ctx, &client.FootageRequest{
		Queries:     queries,
		Orientation: "portrait",
	})
	if err != nil {
		return nil, fmt.Errorf("footage resolution failed: %w", err)
	}
	if len(footage.Clips) == 0 {
		return nil, fmt.Errorf("no footage found for script")
	}

	clips := make([]model.ClipAsset, 0, len(footage.Clips))
	for _, c := range footage.Clips {
		clips = append(clips, model.ClipAsset{
			URL:      c.URL,
			Duration: c.Duration,
			Query:    c.Query,
		})
	}

	return &model.AssetSet{
		VoiceoverURL: voice.OutputURL,
		Clips:        clips,
		Captions:     captions,
	}, nil
}

func assetMock(jobID string, captions, queries []string) *model.AssetSet {
	clips := make([]model.ClipAsset, 0, len(queries))
	for i, q := range queries {
		clips = append(clips, model.ClipAsset{
			URL:      fmt.Sprintf("https://media.clipforge.dev/mock/%s/clip-%d.mp4", jobID, i),
			Duration: 6,
			Query:    q,
		})
	}
	return &model.AssetSet{
		VoiceoverURL: fmt.Sprintf("https://media.clipforge.dev/mock/%s/voiceover.mp3", jobID),
		Clips:        clips,
		Captions:     captions,
	}
}
