package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/personas/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `{
  "detailed_traits": {"test_trait": 0.8, "another_trait": 0.6},
  "response_patterns": {
    "greeting": "Hello from {agent_name}!",
    "analysis": "Analyzing {context}: {findings}"
  },
  "learning_history": [],
  "contextual_memories": [{"note": "first deploy"}],
  "custom_section": {"nested": {"a": 1, "b": 2}}
}`

func newTestRepo(t *testing.T) *DetailRepo {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_agent_personality.json"), []byte(testDocument), 0644))
	return NewDetailRepo(dir)
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDetailRepo_FetchDetailed(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	profile, err := repo.FetchDetailed(context.Background(), "test_agent")
	require.NoError(t, err)

	assert.Equal(t, 0.8, profile.Traits["test_trait"])
	assert.Equal(t, "Hello from {agent_name}!", profile.ResponsePatterns["greeting"])
	assert.Len(t, profile.LearningHistory, 0)
	require.Len(t, profile.ContextualMemories, 1)
	assert.JSONEq(t, `{"note": "first deploy"}`, string(profile.ContextualMemories[0]))
}

func TestDetailRepo_FetchDetailed_Missing(t *testing.T) {
	t.Parallel()
	repo := NewDetailRepo(t.TempDir())

	profile, err := repo.FetchDetailed(context.Background(), "nonexistent_agent")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, core.ReasonNotFound, core.ReasonOf(err))

	require.NotNil(t, profile.Traits)
	require.NotNil(t, profile.ResponsePatterns)
	assert.Empty(t, profile.Traits)
	assert.Empty(t, profile.ResponsePatterns)
}

func TestDetailRepo_FetchDetailed_Malformed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_personality.json"), []byte(`{"detailed_traits": [`), 0644))
	repo := NewDetailRepo(dir)

	profile, err := repo.FetchDetailed(context.Background(), "broken")
	assert.Equal(t, core.ReasonMalformed, core.ReasonOf(err))
	assert.NotNil(t, profile.Traits)
	assert.NotNil(t, profile.ResponsePatterns)
}

func TestDetailRepo_FetchDetailed_NullSections(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sparse_personality.json"), []byte(`{"detailed_traits": null}`), 0644))
	repo := NewDetailRepo(dir)

	profile, err := repo.FetchDetailed(context.Background(), "sparse")
	require.NoError(t, err)
	assert.NotNil(t, profile.Traits)
	assert.NotNil(t, profile.ResponsePatterns)
}

func TestDetailRepo_WriteDetailed_ShallowOverwrite(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.WriteDetailed(ctx, "test_agent", map[string]json.RawMessage{
		core.KeyTraits: raw(t, map[string]float64{"new_trait": 0.9}),
	})
	require.NoError(t, err)

	profile, err := repo.FetchDetailed(ctx, "test_agent")
	require.NoError(t, err)

	// the whole traits object is replaced
	assert.Equal(t, map[string]float64{"new_trait": 0.9}, profile.Traits)
	// keys absent from the patch survive
	assert.Equal(t, "Hello from {agent_name}!", profile.ResponsePatterns["greeting"])
	assert.Len(t, profile.ContextualMemories, 1)

	doc, err := repo.ReadDetailedRaw(ctx, "test_agent")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nested": {"a": 1, "b": 2}}`, string(doc["custom_section"]))
}

func TestDetailRepo_WriteDetailed_CreatesDocument(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "personalities")
	repo := NewDetailRepo(dir)
	ctx := context.Background()

	err := repo.WriteDetailed(ctx, "fresh", map[string]json.RawMessage{
		core.KeyResponsePatterns: raw(t, map[string]string{"greeting": "Hi {agent_name}"}),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "fresh_personality.json"))
	require.NoError(t, err)

	profile, err := repo.FetchDetailed(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "Hi {agent_name}", profile.ResponsePatterns["greeting"])
	assert.Empty(t, profile.Traits)
}

func TestDetailRepo_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewDetailRepo(t.TempDir())
	ctx := context.Background()

	patch := map[string]json.RawMessage{
		core.KeyTraits:             json.RawMessage(`{"creativity": 0.9, "humor": 0.7}`),
		core.KeyResponsePatterns:   json.RawMessage(`{"greeting": "🎉 Hey there! I'm {agent_name}!", "quote": "say \"hi\"\n"}`),
		core.KeyLearningHistory:    json.RawMessage(`[{"lesson": "a"}, {"lesson": "b"}]`),
		core.KeyContextualMemories: json.RawMessage(`[]`),
	}
	require.NoError(t, repo.WriteDetailed(ctx, "round", patch))

	doc, err := repo.ReadDetailedRaw(ctx, "round")
	require.NoError(t, err)
	require.Len(t, doc, len(patch))
	for key, want := range patch {
		assert.JSONEq(t, string(want), string(doc[key]), key)
	}
}

func TestDetailRepo_WriteDetailed_Idempotent(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()
	patch := map[string]json.RawMessage{core.KeyTraits: json.RawMessage(`{"x": 0.1}`)}

	require.NoError(t, repo.WriteDetailed(ctx, "test_agent", patch))
	path, err := repo.Path("test_agent")
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, repo.WriteDetailed(ctx, "test_agent", patch))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestDetailRepo_WriteDetailed_RejectsInvalidJSON(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	err := repo.WriteDetailed(context.Background(), "test_agent", map[string]json.RawMessage{
		core.KeyTraits: json.RawMessage(`{"x":`),
	})
	assert.Equal(t, core.ReasonMalformed, core.ReasonOf(err))

	profile, err := repo.FetchDetailed(context.Background(), "test_agent")
	require.NoError(t, err)
	assert.Equal(t, 0.8, profile.Traits["test_trait"])
}

func TestDetailRepo_WriteDetailed_KeepsMalformedDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "broken_personality.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0644))
	repo := NewDetailRepo(dir)

	err := repo.WriteDetailed(context.Background(), "broken", map[string]json.RawMessage{
		core.KeyTraits: json.RawMessage(`{}`),
	})
	assert.Equal(t, core.ReasonMalformed, core.ReasonOf(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
}

func TestDetailRepo_InvalidAgentNames(t *testing.T) {
	t.Parallel()
	repo := NewDetailRepo(t.TempDir())

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`} {
		t.Run(name, func(t *testing.T) {
			_, err := repo.FetchDetailed(context.Background(), name)
			assert.Equal(t, core.ReasonMalformed, core.ReasonOf(err))

			err = repo.WriteDetailed(context.Background(), name, map[string]json.RawMessage{})
			assert.Equal(t, core.ReasonMalformed, core.ReasonOf(err))
		})
	}
}

func TestDetailRepo_ReadOnlyDirectory(t *testing.T) {
	t.Parallel()
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}

	dir := t.TempDir()
	repo := NewDetailRepo(dir)
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	err := repo.WriteDetailed(context.Background(), "agent", map[string]json.RawMessage{
		core.KeyTraits: json.RawMessage(`{}`),
	})
	assert.Equal(t, core.ReasonTransport, core.ReasonOf(err))
}
