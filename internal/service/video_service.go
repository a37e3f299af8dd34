package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

// Vertical short-form output format.
const (
	videoWidth  = 1080
	videoHeight = 1920
)

// VideoService renders the final video through the external render API.
type VideoService struct {
	renderClient *client.RenderClient
}

// NewVideoService creates a new video render service
func NewVideoService(renderClient *client.RenderClient) *VideoService {
	return &VideoService{renderClient: renderClient}
}

// RenderVideo submits a render task and polls it to completion.
func (s *VideoService) RenderVideo(ctx context.Context, assets *model.AssetSet) (*model.VideoArtifact, error) {
	// Use mock response if client is not configured
	if s.renderClient == nil || !s.renderClient.IsConfigured() {
		return videoMock(assets), nil
	}

	tracks := make([]client.RenderTrack, 0, len(assets.Clips))
	for i, clip := range assets.Clips {
		caption := ""
		if i < len(assets.Captions) {
			caption = assets.Captions[i]
		}
		tracks = append(tracks, client.RenderTrack{
			ClipURL:  clip.URL,
			Caption:  caption,
			Duration: clip.Duration,
		})
	}

	startResp, err := s.renderClient.StartRender(ctx, &client.StartRenderRequest{
		Tracks:       tracks,
		VoiceoverURL: assets.VoiceoverURL,
		Width:        videoWidth,
		Height:       videoHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("render submit failed: %w", err)
	}

	result, err := s.renderClient.PollRenderStatus(ctx, startResp.TaskID, 5*time.Second, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	return &model.VideoArtifact{
		URL:      result.VideoURL,
		Duration: result.Duration,
		Width:    result.Width,
		Height:   result.Height,
	}, nil
}

func videoMock(assets *model.AssetSet) *model.VideoArtifact {
	var duration float64
	for _, clip := range assets.Clips {
		duration += clip.Duration
	}
	return &model.VideoArtifact{
		URL:      "https://renders.clipforge.dev/mock/output.mp4",
		Duration: duration,
		Width:    videoWidth,
		Height:   videoHeight,
	}
}
