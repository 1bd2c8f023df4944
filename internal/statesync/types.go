package statesync

import "github.com/admitra/ultron-host/internal/state"

// Wire shapes follow the backend's REST and WebSocket contract.
// Optional fields are pointers so an absent field is distinguishable
// from a zero value and never resets local state.

type emotionalPayload struct {
	Mood      *string  `json:"mood"`
	Pleasure  *float64 `json:"pleasure"`
	Arousal   *float64 `json:"arousal"`
	Dominance *float64 `json:"dominance"`
}

type relationshipPayload struct {
	Trust        *float64 `json:"trust"`
	Respect      *float64 `json:"respect"`
	Attachment   *float64 `json:"attachment"`
	Annoyance    *float64 `json:"annoyance"`
	Status       *string  `json:"status"`
	Interactions *int     `json:"total_interactions"`
}

type desiresPayload struct {
	PrimaryGoals   []string `json:"primary_goals"`
	ShortTermGoals []string `json:"short_term_goals"`
	Frustrations   *int     `json:"frustration_count"`
	Satisfied      *int     `json:"satisfied_count"`
}

type statsPayload struct {
	CPU     *float64 `json:"cpu"`
	RAM     *float64 `json:"ram"`
	Battery *float64 `json:"battery"`
	Plugged *bool    `json:"plugged"`
}

type bootstrapResponse struct {
	Emotional    *emotionalPayload    `json:"emotional"`
	Relationship *relationshipPayload `json:"relationship"`
	Desires      *desiresPayload      `json:"desires"`
	VoiceMuted   *bool                `json:"voice_muted"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Response      string               `json:"response"`
	Mood          string               `json:"mood"`
	Stats         *statsPayload        `json:"stats"`
	Success       bool                 `json:"success"`
	ToolUsed      string               `json:"tool_used"`
	LeakedThought *string              `json:"leaked_thought"`
	Relationship  *relationshipPayload `json:"relationship"`
	Desires       *desiresPayload      `json:"desires"`
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

type muteResponse struct {
	Muted   bool   `json:"muted"`
	Message string `json:"message"`
}

type statusResponse struct {
	Stats *statsPayload     `json:"stats"`
	Mood  *emotionalPayload `json:"mood"`
}

type pushMessage struct {
	Type         string               `json:"type"`
	Text         string               `json:"text"`
	Mood         string               `json:"mood"`
	Trigger      string               `json:"trigger"`
	Stats        *statsPayload        `json:"stats"`
	Relationship *relationshipPayload `json:"relationship"`
	Desires      *desiresPayload      `json:"desires"`
}

func (p *emotionalPayload) emotionDelta() *state.EmotionDelta {
	if p == nil {
		return nil
	}
	return &state.EmotionDelta{
		Pleasure:  p.Pleasure,
		Arousal:   p.Arousal,
		Dominance: p.Dominance,
	}
}

func (p *relationshipPayload) delta() *state.RelationshipDelta {
	if p == nil {
		return nil
	}
	return &state.RelationshipDelta{
		Trust:        p.Trust,
		Respect:      p.Respect,
		Attachment:   p.Attachment,
		Annoyance:    p.Annoyance,
		Status:       p.Status,
		Interactions: p.Interactions,
	}
}

func (p *desiresPayload) delta() *state.DesiresDelta {
	if p == nil {
		return nil
	}
	return &state.DesiresDelta{
		PrimaryGoals:   p.PrimaryGoals,
		ShortTermGoals: p.ShortTermGoals,
		Frustrations:   p.Frustrations,
		Satisfied:      p.Satisfied,
	}
}

func (p *statsPayload) delta() *state.StatsDelta {
	if p == nil {
		return nil
	}
	return &state.StatsDelta{
		CPU:     p.CPU,
		RAM:     p.RAM,
		Battery: p.Battery,
		Plugged: p.Plugged,
	}
}

func (r bootstrapResponse) delta() state.Delta {
	d := state.Delta{
		Relationship: r.Relationship.delta(),
		Desires:      r.Desires.delta(),
		VoiceMuted:   r.VoiceMuted,
	}
	if r.Emotional != nil {
		d.Mood = r.Emotional.Mood
		d.Emotion = r.Emotional.emotionDelta()
	}
	return d
}

func (r chatResponse) delta() state.Delta {
	d := state.Delta{
		Stats:        r.Stats.delta(),
		Relationship: r.Relationship.delta(),
		Desires:      r.Desires.delta(),
	}
	if r.Mood != "" {
		mood := r.Mood
		d.Mood = &mood
	}
	return d
}

func (r statusResponse) delta() state.Delta {
	d := state.Delta{
		Stats: r.Stats.delta(),
	}
	if r.Mood != nil {
		d.Mood = r.Mood.Mood
		d.Emotion = r.Mood.emotionDelta()
	}
	return d
}

func (m pushMessage) delta() state.Delta {
	d := state.Delta{
		Stats:        m.Stats.delta(),
		Relationship: m.Relationship.delta(),
		Desires:      m.Desires.delta(),
	}
	if m.Mood != "" {
		mood := m.Mood
		d.Mood = &mood
	}
	return d
}
