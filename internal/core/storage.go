package core

import (
	"context"
	"encoding/json"
)

// CoreRepository is the relational side of the personality store.
type CoreRepository interface {
	FetchCore(ctx context.Context, agentName string) (CoreProfile, error)
	FetchRelationships(ctx context.Context, agentName string) ([]Relationship, error)
	WriteCore(ctx context.Context, agentName string, profile CoreProfile) error
	CreateAgent(ctx context.Context, profile CoreProfile) error
	AddRelationship(ctx context.Context, rel Relationship) error
	SaveMemorySummary(ctx context.Context, summary MemorySummary) error
}

// DetailRepository is the flat-file side of the personality store.
type DetailRepository interface {
	// FetchDetailed always returns a usable profile, even alongside an error.
	FetchDetailed(ctx context.Context, agentName string) (DetailedProfile, error)
	ReadDetailedRaw(ctx context.Context, agentName string) (map[string]json.RawMessage, error)
	WriteDetailed(ctx context.Context, agentName string, patch map[string]json.RawMessage) error
}
