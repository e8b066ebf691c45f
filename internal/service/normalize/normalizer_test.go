package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/wykra-go/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestToInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *int64
	}{
		{name: "plain string", value: "42", want: int64Ptr(42)},
		{name: "trailing zero", value: "42.0", want: int64Ptr(42)},
		{name: "letters", value: "abc", want: nil},
		{name: "float string", value: "1234.0", want: int64Ptr(1234)},
		{name: "float", value: 1234.9, want: int64Ptr(1234)},
		{name: "int", value: 42, want: int64Ptr(42)},
		{name: "json number", value: json.Number("7"), want: int64Ptr(7)},
		{name: "padded", value: "  15 ", want: int64Ptr(15)},
		{name: "zero", value: "0", want: int64Ptr(0)},
		{name: "abbreviated", value: "1.2k", want: nil},
		{name: "empty", value: "", want: nil},
		{name: "nil", value: nil, want: nil},
		{name: "negative", value: -3, want: nil},
		{name: "beyond int64", value: "9223372036854775808", want: nil},
		{name: "huge float", value: 1e19, want: nil},
		{name: "large but representable", value: "9007199254740992", want: int64Ptr(9007199254740992)},
		{name: "nan", value: math.NaN(), want: nil},
		{name: "bool", value: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.value))
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{value: true, want: true},
		{value: false, want: false},
		{value: "TRUE", want: true},
		{value: "YES", want: true},
		{value: "1", want: true},
		{value: "no", want: false},
		{value: "0", want: false},
		{value: "", want: false},
		{value: 1.0, want: true},
		{value: 0, want: false},
		{value: nil, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToBool(tt.value), "ToBool(%#v)", tt.value)
	}
}

func TestNormalizeSelectsMatchingRowIgnoringCase(t *testing.T) {
	records, err := ParseCSV([]byte("account,followers\nalice,100\nbob,5\n"))
	require.NoError(t, err)

	result, err := Normalize("ALICE", records)
	require.NoError(t, err)

	assert.False(t, result.Substituted)
	assert.Equal(t, 2, result.RecordCount)
	assert.Equal(t, "alice", result.Profile.Username)
	assert.Equal(t, int64Ptr(100), result.Profile.Followers)

	result, err = Normalize("@Bob", records)
	require.NoError(t, err)
	assert.False(t, result.Substituted)
	assert.Equal(t, "bob", result.Profile.Username)
}

func TestNormalizeFallsBackToFirstRow(t *testing.T) {
	records, err := ParseCSV([]byte("account,followers\nalice,100\nbob,5\n"))
	require.NoError(t, err)

	result, err := Normalize("carol", records)
	require.NoError(t, err)

	assert.True(t, result.Substituted)
	assert.Equal(t, "alice", result.Profile.Username)
	assert.Equal(t, map[string]any(records[0]), result.Profile.Raw)
}

func TestSelectRecordMatchesAnyUsernameAlias(t *testing.T) {
	records := []domain.Record{
		{"account": "bob"},
		{"handle": "Alice"},
	}

	record, matched, ok := SelectRecord("alice", records)

	require.True(t, ok)
	assert.True(t, matched)
	assert.Equal(t, "Alice", record["handle"])
}

func TestNormalizeEmptyRecords(t *testing.T) {
	_, err := Normalize("alice", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoRecords)
}

func TestToProfileAliasesAndRaw(t *testing.T) {
	record := domain.Record{
		"user_name":           "alice",
		"full_name":           "Alice A.",
		"biography":           "hello",
		"followers_count":     json.Number("2500"),
		"following":           "12",
		"posts":               "1.2k",
		"verified":            "yes",
		"is_business_account": false,
		"is_business":         "1",
		"url":                 "https://instagram.com/alice",
		"extra":               []any{"kept"},
	}

	profile := ToProfile("ignored", record)

	assert.Equal(t, "alice", profile.Username)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Alice A.", *profile.FullName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "hello", *profile.Bio)
	assert.Equal(t, int64Ptr(2500), profile.Followers)
	assert.Equal(t, int64Ptr(12), profile.Following)
	assert.Nil(t, profile.PostsCount)
	assert.True(t, profile.IsVerified)
	assert.True(t, profile.IsBusiness)
	require.NotNil(t, profile.ProfileURL)
	assert.Equal(t, "https://instagram.com/alice", *profile.ProfileURL)
	assert.Equal(t, map[string]any(record), profile.Raw)
}

func TestToProfileFallsBackToRequestedUsername(t *testing.T) {
	profile := ToProfile("@alice", domain.Record{"followers": "10"})

	assert.Equal(t, "alice", profile.Username)
	assert.Nil(t, profile.FullName)
	assert.False(t, profile.IsVerified)
}

func TestToProfileFirstNonEmptyAliasWins(t *testing.T) {
	profile := ToProfile("alice", domain.Record{
		"account":         "",
		"username":        "alice_real",
		"followers":       "",
		"followers_count": "77",
	})

	assert.Equal(t, "alice_real", profile.Username)
	assert.Equal(t, int64Ptr(77), profile.Followers)
}

func TestHasProfileFields(t *testing.T) {
	assert.True(t, HasProfileFields(map[string]any{"account": "alice"}))
	assert.False(t, HasProfileFields(map[string]any{"status": "building"}))
	assert.False(t, HasProfileFields(map[string]any{"is_verified": true}))
}
