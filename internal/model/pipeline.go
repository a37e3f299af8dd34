package model

// Brief is the research output for a keyword: the raw material the
// script is written from.
type Brief struct {
	Keyword       string   `json:"keyword"`
	Summary       string   `json:"summary"`
	TalkingPoints []string `json:"talkingPoints"`
	Audience      string   `json:"audience,omitempty"`
}

// Scene is one narrated beat of the script with a visual direction.
type Scene struct {
	Narration string `json:"narration"`
	Visual    string `json:"visual"`
}

// Script is the scripting output: a headline plus ordered scenes.
type Script struct {
	Headline string  `json:"headline"`
	Hook     string  `json:"hook"`
	Scenes   []Scene `json:"scenes"`
}

// ClipAsset is a single piece of stock footage resolved for a scene.
type ClipAsset struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Query    string  `json:"query,omitempty"`
}

// AssetSet is everything the renderer needs: a voiceover track, one
// clip per scene and the caption lines.
type AssetSet struct {
	VoiceoverURL string      `json:"voiceoverUrl"`
	Clips        []ClipAsset `json:"clips"`
	Captions     []string    `json:"captions"`
}

// VideoArtifact is the rendered video before publishing. URL points at
// the render service's temporary storage.
type VideoArtifact struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}
