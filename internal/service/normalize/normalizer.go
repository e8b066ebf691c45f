// Package normalize maps raw provider records onto the canonical domain.Profile.
package normalize

import (
	"errors"
	"strings"

	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/util"
)

var errNoRecords = errors.New("snapshot contained no records")

// Result is a normalized profile plus how its source record was picked.
type Result struct {
	Profile *domain.Profile
	// Substituted is set when no record matched the requested username and
	// the first record was used instead.
	Substituted bool
	RecordCount int
}

// Normalize selects the record for username and projects it onto a Profile.
// It fails only when records is empty.
func Normalize(username string, records []domain.Record) (*Result, error) {
	record, matched, ok := SelectRecord(username, records)
	if !ok {
		return nil, errNoRecords
	}

	return &Result{
		Profile:     ToProfile(username, record),
		Substituted: !matched,
		RecordCount: len(records),
	}, nil
}

// SelectRecord returns the record whose username column equals username,
// ignoring case and a leading "@". Without an exact match it falls back to
// the first record and reports matched=false.
func SelectRecord(username string, records []domain.Record) (record domain.Record, matched bool, ok bool) {
	if len(records) == 0 {
		return nil, false, false
	}

	want := util.NormalizeHandle(username)
	for _, candidate := range records {
		for _, key := range UsernameKeys {
			value, present := ToString(candidate[key])
			if present && util.NormalizeHandle(value) == want {
				return candidate, true, true
			}
		}
	}

	return records[0], false, true
}

// ToProfile projects a single record. Raw is the record itself, untouched.
func ToProfile(requested string, record domain.Record) *domain.Profile {
	username, ok := firstString(record, UsernameKeys)
	if !ok {
		username = strings.TrimPrefix(strings.TrimSpace(requested), "@")
	}

	profile := &domain.Profile{
		Username:   username,
		FullName:   optionalString(record, FullNameKeys),
		Bio:        optionalString(record, BioKeys),
		Followers:  firstInt(record, FollowersKeys),
		Following:  firstInt(record, FollowingKeys),
		PostsCount: firstInt(record, PostsCountKeys),
		IsVerified: anyTrue(record, VerifiedKeys),
		IsBusiness: anyTrue(record, BusinessKeys),
		ProfileURL: optionalString(record, ProfileURLKeys),
		Raw:        map[string]any(record),
	}
	if profile.Raw == nil {
		profile.Raw = map[string]any{}
	}
	return profile
}

func firstString(record domain.Record, keys []string) (string, bool) {
	for _, key := range keys {
		if value, ok := ToString(record[key]); ok {
			return value, true
		}
	}
	return "", false
}

func optionalString(record domain.Record, keys []string) *string {
	value, ok := firstString(record, keys)
	if !ok {
		return nil
	}
	return &value
}

// firstInt uses the first alias that holds a non-empty value, mirroring the
// string lookup, and returns nil if that value does not parse.
func firstInt(record domain.Record, keys []string) *int64 {
	for _, key := range keys {
		value, present := record[key]
		if !present || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return ToInt(value)
	}
	return nil
}

func anyTrue(record domain.Record, keys []string) bool {
	for _, key := range keys {
		if ToBool(record[key]) {
			return true
		}
	}
	return false
}
