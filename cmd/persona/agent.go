package main

import (
	"context"
	"fmt"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/internal/service/agent"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agents in the relational store",
}

var newProfile = agent.DefaultCore("")

var agentAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register an agent with its core personality",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		profile := newProfile
		profile.AgentName = args[0]
		if profile.ActivityLevel < 0 || profile.ActivityLevel > 1 {
			return fmt.Errorf("--activity %v: %w", profile.ActivityLevel, core.ErrInvalidData)
		}

		if err := r.coreRepo.CreateAgent(ctx, profile); err != nil {
			return err
		}
		log.FromCtx(ctx).Info().Str("agent", profile.AgentName).Str("type", profile.PersonalityType).Msg("agent registered")
		return nil
	}),
}

var newRelationship core.Relationship

var relateCmd = &cobra.Command{
	Use:   "relate AGENT_1 AGENT_2",
	Short: "Record a relationship between two registered agents",
	Args:  cobra.ExactArgs(2),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		rel := newRelationship
		rel.Agent1, rel.Agent2 = args[0], args[1]

		if err := r.coreRepo.AddRelationship(ctx, rel); err != nil {
			return err
		}
		log.FromCtx(ctx).Info().Str("agent_1", rel.Agent1).Str("agent_2", rel.Agent2).Msg("relationship recorded")
		return nil
	}),
}

func init() {
	f := agentAddCmd.Flags()
	f.StringVar(&newProfile.PersonalityType, "type", newProfile.PersonalityType, "personality type")
	f.StringVar(&newProfile.CommunicationStyle, "style", newProfile.CommunicationStyle, "communication style")
	f.StringVar(&newProfile.AuthorityLevel, "authority", newProfile.AuthorityLevel, "authority level")
	f.StringVar(&newProfile.CulturalBackground, "culture", newProfile.CulturalBackground, "cultural background")
	f.StringVar(&newProfile.ExpertiseSummary, "expertise", newProfile.ExpertiseSummary, "expertise summary")
	f.StringVar(&newProfile.ManagementPhilosophy, "philosophy", newProfile.ManagementPhilosophy, "management philosophy")
	f.Float64Var(&newProfile.ActivityLevel, "activity", newProfile.ActivityLevel, "activity level between 0 and 1")

	rf := relateCmd.Flags()
	rf.StringVar(&newRelationship.RelationshipType, "type", "peer", "relationship type")
	rf.Float64Var(&newRelationship.Strength, "strength", 0.5, "relationship strength between 0 and 1")
	rf.StringVar(&newRelationship.Notes, "notes", "", "free-form notes")

	agentCmd.AddCommand(agentAddCmd)
	rootCmd.AddCommand(agentCmd, relateCmd)
}
