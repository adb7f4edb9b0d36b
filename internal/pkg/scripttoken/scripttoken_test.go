package scripttoken

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
)

const (
	testUserID = "2f1d3c4b-5a69-4788-9a0b-1c2d3e4f5a6b"
	testSecret = "unit-test-secret"
)

func TestEncodeDecodeUserIDRoundTrip(t *testing.T) {
	encoded := EncodeUserID(testUserID)
	decoded, err := DecodeUserID(encoded)
	require.NoError(t, err)
	assert.Equal(t, testUserID, decoded)
}

func TestDecodeUserIDUppercaseIsNormalized(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("2F1D3C4B-5A69-4788-9A0B-1C2D3E4F5A6B"))
	decoded, err := DecodeUserID(encoded)
	require.NoError(t, err)
	assert.Equal(t, testUserID, decoded)
}

func TestDecodeUserIDRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"decodes to non-uuid", base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{"uuid v1 rejected", base64.StdEncoding.EncodeToString([]byte("2f1d3c4b-5a69-1788-9a0b-1c2d3e4f5a6b"))},
		{"wrong variant rejected", base64.StdEncoding.EncodeToString([]byte("2f1d3c4b-5a69-4788-7a0b-1c2d3e4f5a6b"))},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUserID(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestGenerateScriptID(t *testing.T) {
	id := GenerateScriptID(testUserID, testSecret)

	assert.True(t, IsScriptIDFormat(id), "generated id must match the wire shape")
	assert.Equal(t, id, GenerateScriptID(testUserID, testSecret), "ids are deterministic")
	assert.NotEqual(t, id, GenerateScriptID(testUserID, "other-secret"), "the secret must shift the id")
	assert.NotEqual(t, id, GenerateScriptID("b7e2a190-1c3d-4f5e-8a6b-0d9c8e7f6a5b", testSecret))
}

func TestValidateScriptID(t *testing.T) {
	id := GenerateScriptID(testUserID, testSecret)

	assert.True(t, ValidateScriptID(id, testUserID, testSecret))
	assert.False(t, ValidateScriptID(id, "b7e2a190-1c3d-4f5e-8a6b-0d9c8e7f6a5b", testSecret))
	assert.False(t, ValidateScriptID("fx_000000000000", testUserID, testSecret))
}

func TestIsScriptIDFormat(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"fx_0123456789ab", true},
		{"fx_0123456789AB", false},
		{"fx_0123456789", false},
		{"fx_0123456789abcd", false},
		{"yz_0123456789ab", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsScriptIDFormat(tt.input), "input %q", tt.input)
	}
}

// fakeTokenRepo is an in-memory reverse-lookup table.
type fakeTokenRepo struct {
	byToken map[string]string
	saves   int
	getErr  error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byToken: make(map[string]string)}
}

func (f *fakeTokenRepo) GetUserIDByToken(token string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return "", gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) Save(token, userID string) error {
	f.byToken[token] = userID
	f.saves++
	return nil
}

// fakeUserRepo only serves ListIDs; the resolver needs nothing else.
type fakeUserRepo struct {
	ids     []string
	listErr error
	lists   int
}

func (f *fakeUserRepo) Create(*models.User) error               { return nil }
func (f *fakeUserRepo) GetByID(string) (*models.User, error)    { return nil, gorm.ErrRecordNotFound }
func (f *fakeUserRepo) GetByEmail(string) (*models.User, error) { return nil, gorm.ErrRecordNotFound }
func (f *fakeUserRepo) Update(*models.User) error               { return nil }
func (f *fakeUserRepo) Count() (int64, error)                   { return int64(len(f.ids)), nil }

func (f *fakeUserRepo) ListIDs() ([]string, error) {
	f.lists++
	return f.ids, f.listErr
}

func TestResolveBase64Token(t *testing.T) {
	r := NewResolver(newFakeTokenRepo(), &fakeUserRepo{}, testSecret)

	userID, err := r.Resolve(EncodeUserID(testUserID))
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
}

func TestResolveLegacyTokenFromLookupTable(t *testing.T) {
	scriptID := GenerateScriptID(testUserID, testSecret)
	tokens := newFakeTokenRepo()
	tokens.byToken[scriptID] = testUserID
	users := &fakeUserRepo{}
	r := NewResolver(tokens, users, testSecret)

	userID, err := r.Resolve(scriptID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Zero(t, users.lists, "a table hit must not trigger the scan")
}

func TestResolveLegacyTokenByScanBackfills(t *testing.T) {
	scriptID := GenerateScriptID(testUserID, testSecret)
	tokens := newFakeTokenRepo()
	users := &fakeUserRepo{ids: []string{
		"b7e2a190-1c3d-4f5e-8a6b-0d9c8e7f6a5b",
		testUserID,
	}}
	r := NewResolver(tokens, users, testSecret)

	userID, err := r.Resolve(scriptID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, testUserID, tokens.byToken[scriptID], "scan hits are written back")

	// The second resolve is served by the table.
	_, err = r.Resolve(scriptID)
	require.NoError(t, err)
	assert.Equal(t, 1, users.lists)
}

func TestResolveUnknownLegacyToken(t *testing.T) {
	r := NewResolver(newFakeTokenRepo(), &fakeUserRepo{ids: []string{testUserID}}, testSecret)

	_, err := r.Resolve("fx_ffffffffffff")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestResolveEmptyToken(t *testing.T) {
	r := NewResolver(newFakeTokenRepo(), &fakeUserRepo{}, testSecret)

	_, err := r.Resolve("   ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
