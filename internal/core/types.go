package core

import (
	"encoding/json"
	"time"
)

const (
	AppName    = "persona"
	AppVersion = "0.1.0"
)

// Component names accepted by the personality update path.
const (
	ComponentCore          = "core"
	ComponentDetailed      = "detailed"
	ComponentRelationships = "relationships"
)

// Top-level keys of the per-agent personality document.
const (
	KeyTraits             = "detailed_traits"
	KeyResponsePatterns   = "response_patterns"
	KeyLearningHistory    = "learning_history"
	KeyContextualMemories = "contextual_memories"
)

// CoreProfile is one row of the agent_personality_overview view.
type CoreProfile struct {
	AgentName            string     `json:"agent_name"`
	PersonalityType      string     `json:"personality_type"`
	CommunicationStyle   string     `json:"communication_style"`
	AuthorityLevel       string     `json:"authority_level"`
	CulturalBackground   string     `json:"cultural_background"`
	ExpertiseSummary     string     `json:"expertise_summary"`
	ManagementPhilosophy string     `json:"management_philosophy"`
	ActivityLevel        float64    `json:"activity_level"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// IsZero reports whether no core row was loaded.
func (c CoreProfile) IsZero() bool {
	return c.AgentName == ""
}

// Relationship is one row of the agent_relationship_network view.
type Relationship struct {
	Agent1           string     `json:"agent_1"`
	Agent2           string     `json:"agent_2"`
	RelationshipType string     `json:"relationship_type"`
	Strength         float64    `json:"strength"`
	Notes            string     `json:"notes,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Peer returns the other side of the pair as seen from agentName.
func (r Relationship) Peer(agentName string) string {
	if r.Agent1 == agentName {
		return r.Agent2
	}
	return r.Agent1
}

// DetailedProfile is the decoded form of an agent's personality document.
type DetailedProfile struct {
	Traits             map[string]float64 `json:"detailed_traits"`
	ResponsePatterns   map[string]string  `json:"response_patterns"`
	LearningHistory    []json.RawMessage  `json:"learning_history,omitempty"`
	ContextualMemories []json.RawMessage  `json:"contextual_memories,omitempty"`
}

// EmptyDetailedProfile returns the shape used when no document exists.
func EmptyDetailedProfile() DetailedProfile {
	return DetailedProfile{
		Traits:           map[string]float64{},
		ResponsePatterns: map[string]string{},
	}
}

// Personality is the merged, read-only snapshot built on every load.
// Changes must go through the update path; mutating it persists nothing.
type Personality struct {
	Core               CoreProfile        `json:"core_personality"`
	Traits             map[string]float64 `json:"detailed_traits"`
	ResponsePatterns   map[string]string  `json:"response_patterns"`
	Relationships      []Relationship     `json:"relationships"`
	LearningHistory    []json.RawMessage  `json:"learning_history"`
	ContextualMemories []json.RawMessage  `json:"contextual_memories"`
	LoadedAt           time.Time          `json:"loaded_at"`
	Status             LoadStatus         `json:"status"`
}

// LoadStatus records how each backing source answered during a load.
type LoadStatus struct {
	Core          Reason `json:"core"`
	Detailed      Reason `json:"detailed"`
	Relationships Reason `json:"relationships"`
}

// Found reports whether the agent has a core row or a personality document.
// An empty relationship list says nothing about the agent.
func (s LoadStatus) Found() bool {
	return s.Core == ReasonOK || s.Detailed == ReasonOK
}

// MemorySummary is an aggregate of an agent's recent interactions.
type MemorySummary struct {
	AgentName         string         `json:"agent_name"`
	PersonalityType   string         `json:"personality_type"`
	PeriodDays        int            `json:"period_days"`
	TotalInteractions int            `json:"total_interactions"`
	CurrentMood       string         `json:"current_mood"`
	InteractionTypes  map[string]int `json:"interaction_types"`
	KeyContexts       []string       `json:"key_contexts"`
}
