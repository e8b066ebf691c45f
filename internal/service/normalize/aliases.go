package normalize

// Provider field aliases, most preferred first. Adding a provider quirk is a
// one-line change here.
var (
	UsernameKeys   = []string{"account", "username", "user_name", "handle"}
	FullNameKeys   = []string{"profile_name", "full_name", "name"}
	BioKeys        = []string{"bio", "biography"}
	FollowersKeys  = []string{"followers", "followers_count"}
	FollowingKeys  = []string{"following", "following_count"}
	PostsCountKeys = []string{"posts_count", "posts"}
	VerifiedKeys   = []string{"is_verified", "verified"}
	BusinessKeys   = []string{"is_business_account", "is_professional_account", "is_business"}
	ProfileURLKeys = []string{"profile_url", "url"}
)

// indicatorKeys are the keys whose presence marks a record as profile data.
var indicatorKeys = func() map[string]struct{} {
	set := make(map[string]struct{})
	groups := [][]string{
		UsernameKeys, FullNameKeys, BioKeys, FollowersKeys,
		FollowingKeys, PostsCountKeys, ProfileURLKeys,
	}
	for _, group := range groups {
		for _, key := range group {
			set[key] = struct{}{}
		}
	}
	return set
}()

// HasProfileFields reports whether the record carries at least one recognized profile field.
func HasProfileFields(record map[string]any) bool {
	for key := range record {
		if _, ok := indicatorKeys[key]; ok {
			return true
		}
	}
	return false
}
