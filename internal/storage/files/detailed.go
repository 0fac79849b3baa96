package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/log"
)

const storeName = "files"

// DetailRepo keeps one JSON document per agent under dir, named
// <agent>_personality.json. Concurrent writers to the same agent are not
// coordinated.
type DetailRepo struct {
	dir string
}

func NewDetailRepo(dir string) *DetailRepo {
	return &DetailRepo{dir: dir}
}

// Init creates the personalities directory if it does not exist.
func (r *DetailRepo) Init() error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create personalities directory: %w", err)
	}
	return nil
}

func (r *DetailRepo) Path(agentName string) (string, error) {
	if agentName == "" || agentName == "." || agentName == ".." ||
		strings.ContainsAny(agentName, `/\`) || strings.Contains(agentName, "..") {
		return "", core.MalformedError(storeName, "path", fmt.Errorf("invalid agent name %q", agentName))
	}
	return filepath.Join(r.dir, agentName+"_personality.json"), nil
}

// FetchDetailed decodes the agent's document. The returned profile always has
// non-nil Traits and ResponsePatterns, whatever the error.
func (r *DetailRepo) FetchDetailed(ctx context.Context, agentName string) (core.DetailedProfile, error) {
	profile := core.EmptyDetailedProfile()

	data, err := r.read(agentName, "fetch")
	if err != nil {
		return profile, err
	}

	if err := json.Unmarshal(data, &profile); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("agent", agentName).Msg("undecodable personality document")
		return core.EmptyDetailedProfile(), core.MalformedError(storeName, "fetch", err)
	}

	if profile.Traits == nil {
		profile.Traits = map[string]float64{}
	}
	if profile.ResponsePatterns == nil {
		profile.ResponsePatterns = map[string]string{}
	}
	return profile, nil
}

// ReadDetailedRaw returns the document's top-level keys without decoding values.
func (r *DetailRepo) ReadDetailedRaw(ctx context.Context, agentName string) (map[string]json.RawMessage, error) {
	data, err := r.read(agentName, "read")
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, core.MalformedError(storeName, "read", err)
	}
	return doc, nil
}

// WriteDetailed replaces the top-level keys present in patch and keeps the
// rest of the existing document. Nested objects are replaced, not merged.
func (r *DetailRepo) WriteDetailed(ctx context.Context, agentName string, patch map[string]json.RawMessage) error {
	logger := log.FromCtx(ctx)

	path, err := r.Path(agentName)
	if err != nil {
		return err
	}

	existing, err := r.ReadDetailedRaw(ctx, agentName)
	switch {
	case errors.Is(err, core.ErrNotFound):
		existing = make(map[string]json.RawMessage, len(patch))
	case err != nil:
		return err
	}

	for key, value := range patch {
		if !json.Valid(value) {
			return core.MalformedError(storeName, "write", fmt.Errorf("value for %q is not valid JSON", key))
		}
		existing[key] = value
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return core.MalformedError(storeName, "write", err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return core.TransportError(storeName, "write", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return core.TransportError(storeName, "write", err)
	}

	logger.Debug().Str("agent", agentName).Int("keys", len(patch)).Msg("personality document updated")
	return nil
}

func (r *DetailRepo) read(agentName, op string) ([]byte, error) {
	path, err := r.Path(agentName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("personality document for %s: %w", agentName, core.ErrNotFound)
		}
		return nil, core.TransportError(storeName, op, err)
	}
	return data, nil
}

func decodeDocument(data []byte) (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		// document is JSON null
		doc = make(map[string]json.RawMessage)
	}
	return doc, nil
}
