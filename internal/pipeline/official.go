package pipeline

import (
	"context"
	"fmt"

	"bilingualtube/internal/language"
	"bilingualtube/internal/services"
	"bilingualtube/internal/subtitles"
)

// CaptionTrack describes a caption track offered for the current video.
type CaptionTrack struct {
	Lang string `json:"lang"`
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`
}

// OfficialSource lists and fetches provider caption tracks.
type OfficialSource interface {
	Tracks(ctx context.Context) ([]CaptionTrack, error)
	Fetch(ctx context.Context, track CaptionTrack) (*subtitles.Response, error)
}

// FindOfficialTrack picks the track in target that differs from source,
// preferring manual tracks over ASR.
func FindOfficialTrack(tracks []CaptionTrack, source, target string) (CaptionTrack, bool) {
	var candidates []CaptionTrack
	for _, track := range tracks {
		if language.Equal(track.Lang, target) && !language.Equal(track.Lang, source) {
			candidates = append(candidates, track)
		}
	}
	if len(candidates) == 0 {
		return CaptionTrack{}, false
	}
	for _, track := range candidates {
		if track.Kind != KindASR {
			return track, true
		}
	}
	return candidates[0], true
}

// StaticSource serves tracks from memory, keyed by normalized language.
type StaticSource struct {
	tracks    []CaptionTrack
	responses map[string]*subtitles.Response
}

// NewStaticSource returns an empty source.
func NewStaticSource() *StaticSource {
	return &StaticSource{responses: make(map[string]*subtitles.Response)}
}

// Add registers a track and its payload.
func (s *StaticSource) Add(track CaptionTrack, resp *subtitles.Response) {
	s.tracks = append(s.tracks, track)
	s.responses[sourceKey(track)] = resp
}

func (s *StaticSource) Tracks(context.Context) ([]CaptionTrack, error) {
	return append([]CaptionTrack(nil), s.tracks...), nil
}

func (s *StaticSource) Fetch(_ context.Context, track CaptionTrack) (*subtitles.Response, error) {
	resp, ok := s.responses[sourceKey(track)]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "official", "fetch",
			fmt.Sprintf("no %s track for %s", track.Kind, track.Lang), nil)
	}
	return resp, nil
}

func sourceKey(track CaptionTrack) string {
	return string(track.Kind) + "|" + language.Normalize(track.Lang)
}
