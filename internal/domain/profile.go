package domain

// Profile is the canonical, provider-agnostic Instagram profile record.
//
// Raw always holds the single provider record the typed fields were projected
// from. Typed fields are best-effort and may be nil even if the value exists
// in Raw under a key the normalizer does not know.
type Profile struct {
	Username   string         `json:"username"`
	FullName   *string        `json:"full_name,omitempty"`
	Bio        *string        `json:"bio,omitempty"`
	Followers  *int64         `json:"followers,omitempty"`
	Following  *int64         `json:"following,omitempty"`
	PostsCount *int64         `json:"posts_count,omitempty"`
	IsVerified bool           `json:"is_verified"`
	IsBusiness bool           `json:"is_business"`
	ProfileURL *string        `json:"profile_url,omitempty"`
	Raw        map[string]any `json:"raw"`
}

// AnalysisPayload is the JSON document handed to the analysis agent.
func (p *Profile) AnalysisPayload() map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"username":    p.Username,
		"full_name":   p.FullName,
		"bio":         p.Bio,
		"followers":   p.Followers,
		"following":   p.Following,
		"posts_count": p.PostsCount,
		"is_verified": p.IsVerified,
		"is_business": p.IsBusiness,
		"profile_url": p.ProfileURL,
		"raw":         p.Raw,
	}
}
