package service

import (
	"context"

	"github.com/clipforge/api/internal/model"
)

// The orchestrator consumes each production stage through one of these
// interfaces. Implementations wrap an external client and fall back to
// deterministic mock output when the client is not configured.

// ResearchCapability turns a keyword into a content brief.
type ResearchCapability interface {
	Research(ctx context.Context, keyword string) (*model.Brief, error)
}

// ScriptCapability turns a brief into a headline and scene script.
type ScriptCapability interface {
	WriteScript(ctx context.Context, brief *model.Brief) (*model.Script, error)
}

// AssetCapability turns a script into voiceover and footage assets.
type AssetCapability interface {
	GenerateAssets(ctx context.Context, jobID string, script *model.Script) (*model.AssetSet, error)
}

// RenderCapability turns an asset set into a finished video artifact.
type RenderCapability interface {
	RenderVideo(ctx context.Context, assets *model.AssetSet) (*model.VideoArtifact, error)
}

// PublishCapability moves a video artifact to public storage and
// returns its public URL.
type PublishCapability interface {
	Publish(ctx context.Context, jobID string, artifact *model.VideoArtifact) (string, error)
}
