package domain

import "fmt"

// Analysis is the structured assessment returned by the analysis agent.
type Analysis struct {
	Summary              string   `json:"summary"`
	QualityScore         int      `json:"qualityScore"`
	Topic                string   `json:"topic"`
	Niche                *string  `json:"niche,omitempty"`
	SponsoredFrequency   string   `json:"sponsoredFrequency"`
	ContentAuthenticity  string   `json:"contentAuthenticity"`
	FollowerAuthenticity string   `json:"followerAuthenticity"`
	VisibleBrands        []string `json:"visibleBrands"`
	EngagementStrength   string   `json:"engagementStrength"`
	PostsAnalysis        string   `json:"postsAnalysis"`
	HashtagsStatistics   string   `json:"hashtagsStatistics"`
}

const (
	MinQualityScore = 1
	MaxQualityScore = 5
)

func (a *Analysis) Validate() error {
	if a == nil {
		return fmt.Errorf("analysis is nil")
	}
	if a.Summary == "" {
		return fmt.Errorf("analysis summary is empty")
	}
	if a.QualityScore < MinQualityScore || a.QualityScore > MaxQualityScore {
		return fmt.Errorf("qualityScore %d out of range %d-%d", a.QualityScore, MinQualityScore, MaxQualityScore)
	}
	if a.VisibleBrands == nil {
		a.VisibleBrands = []string{}
	}
	return nil
}
