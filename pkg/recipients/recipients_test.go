package recipients

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/paper-digest/pkg/system"
)

func TestParse_KeywordForms(t *testing.T) {
	specs, err := Parse([]byte(`[
		{"email": "a@example.com", "keywords": "sign language; gesture"},
		{"email": "b@example.com", "keywords": "asl, bsl"},
		{"email": "c@example.com", "keywords": [" vision ", "", "Robotics"]},
		{"email": "d@example.com"}
	]`))
	require.NoError(t, err)
	require.Len(t, specs, 4)

	assert.Equal(t, Keywords{"sign language", "gesture"}, specs[0].Keywords)
	assert.Equal(t, Keywords{"asl", "bsl"}, specs[1].Keywords)
	assert.Equal(t, Keywords{"vision", "Robotics"}, specs[2].Keywords)
	assert.Empty(t, specs[3].Keywords)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{nope"},
		{name: "object instead of array", data: `{"email":"a@example.com"}`},
		{name: "numeric keywords", data: `[{"email":"a@example.com","keywords":42}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformedConfig)
		})
	}
}

func TestResolve_Precedence(t *testing.T) {
	inline := `[{"email":"inline@example.com","keywords":"x"}]`
	env := `[{"email":"env@example.com","keywords":"y"}]`

	tests := []struct {
		name       string
		src        Sources
		wantEmail  string
		wantSource Source
	}{
		{
			name:       "inline config beats env and legacy",
			src:        Sources{ConfigArg: inline, EnvConfig: env, LegacyEmail: "legacy@example.com"},
			wantEmail:  "inline@example.com",
			wantSource: SourceInline,
		},
		{
			name:       "env config beats legacy",
			src:        Sources{EnvConfig: env, LegacyEmail: "legacy@example.com"},
			wantEmail:  "env@example.com",
			wantSource: SourceEnv,
		},
		{
			name:       "legacy when nothing else is set",
			src:        Sources{LegacyEmail: " legacy@example.com ", LegacyKeywords: []string{"sign language"}},
			wantEmail:  "legacy@example.com",
			wantSource: SourceLegacy,
		},
		{
			name:       "blank config arg falls through",
			src:        Sources{ConfigArg: "   ", EnvConfig: env},
			wantEmail:  "env@example.com",
			wantSource: SourceEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, source, err := Resolve(tt.src, system.NewTestLogger(t))
			require.NoError(t, err)
			require.Len(t, specs, 1)
			assert.Equal(t, tt.wantEmail, specs[0].Email)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestResolve_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"email":"one@example.com","keywords":["a"]},
		{"email":"two@example.com","keywords":"b;c"}
	]`), 0o600))

	specs, source, err := Resolve(Sources{ConfigArg: path, EnvConfig: `[{"email":"env@example.com"}]`}, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, source)
	require.Len(t, specs, 2)
	assert.Equal(t, Keywords{"b", "c"}, specs[1].Keywords)
}

func TestResolve_MalformedFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"email":`), 0o600))

	_, source, err := Resolve(Sources{ConfigArg: path, LegacyEmail: "legacy@example.com"}, nil)
	assert.ErrorIs(t, err, ErrMalformedConfig)
	assert.Equal(t, SourceFile, source)
}

func TestResolve_MissingPathIsParsedInline(t *testing.T) {
	_, source, err := Resolve(Sources{ConfigArg: filepath.Join(t.TempDir(), "nope.json")}, nil)
	assert.ErrorIs(t, err, ErrMalformedConfig)
	assert.Equal(t, SourceInline, source)
}

func TestResolve_LegacyKeywordsAreSplit(t *testing.T) {
	specs, _, err := Resolve(Sources{
		LegacyEmail:    "legacy@example.com",
		LegacyKeywords: []string{"sign language", "asl; bsl"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, Keywords{"sign language", "asl", "bsl"}, specs[0].Keywords)
}

func TestResolve_NoRecipients(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		_, source, err := Resolve(Sources{LegacyKeywords: []string{"x"}}, nil)
		assert.ErrorIs(t, err, ErrNoRecipients)
		assert.Equal(t, SourceNone, source)
	})

	t.Run("empty array does not fall through", func(t *testing.T) {
		_, source, err := Resolve(Sources{EnvConfig: "[]", LegacyEmail: "legacy@example.com"}, nil)
		assert.ErrorIs(t, err, ErrNoRecipients)
		assert.Equal(t, SourceEnv, source)
	})

	t.Run("blank emails dropped", func(t *testing.T) {
		_, _, err := Resolve(Sources{EnvConfig: `[{"email":"  ","keywords":"x"}]`}, nil)
		assert.ErrorIs(t, err, ErrNoRecipients)
	})
}

func TestResolve_DropsBlankEmailKeepsOthers(t *testing.T) {
	specs, _, err := Resolve(Sources{EnvConfig: `[{"email":""},{"email":"ok@example.com","keywords":"x"}]`}, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "ok@example.com", specs[0].Email)
}
