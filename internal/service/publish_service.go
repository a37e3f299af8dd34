package service

import (
	"context"
	"fmt"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

// PublishService copies a rendered artifact into public storage.
type PublishService struct {
	r2Client client.StorageClient
}

// NewPublishService creates a new publish service
func NewPublishService(r2Client client.StorageClient) *PublishService {
	return &PublishService{r2Client: r2Client}
}

// Publish uploads the video artifact to the bucket and returns its
// public URL.
func (s *PublishService) Publish(ctx context.Context, jobID string, artifact *model.VideoArtifact) (string, error) {
	key := fmt.Sprintf("videos/%s.mp4", jobID)

	// Without storage configured the artifact stays on the render
	// service's URL; the dashboard link still works for development.
	if s.r2Client == nil {
		return artifact.URL, nil
	}

	url, err := s.r2Client.UploadFromURL(ctx, key, artifact.URL, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("publish failed: %w", err)
	}
	return url, nil
}
