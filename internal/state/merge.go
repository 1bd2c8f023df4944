package state

// Delta is a partial update to the agent snapshot. A nil group (or a
// nil field within a group) means "absent from the payload" and leaves
// the prior value untouched. Conflict policy across channels is
// last-arrival-wins per field group.
type Delta struct {
	Mood         *string
	Emotion      *EmotionDelta
	Relationship *RelationshipDelta
	Desires      *DesiresDelta
	Stats        *StatsDelta
	VoiceMuted   *bool
}

// EmotionDelta updates the emotional vector.
type EmotionDelta struct {
	Pleasure  *float64
	Arousal   *float64
	Dominance *float64
}

// RelationshipDelta updates the relationship scores.
type RelationshipDelta struct {
	Trust        *float64
	Respect      *float64
	Attachment   *float64
	Annoyance    *float64
	Status       *string
	Interactions *int
}

// DesiresDelta updates the goal lists. A nil slice is absent; an empty
// non-nil slice genuinely clears the list.
type DesiresDelta struct {
	PrimaryGoals   []string
	ShortTermGoals []string
	Frustrations   *int
	Satisfied      *int
}

// StatsDelta updates the system telemetry.
type StatsDelta struct {
	CPU     *float64
	RAM     *float64
	Battery *float64
	Plugged *bool
}

// Empty reports whether the delta carries nothing to merge.
func (d Delta) Empty() bool {
	return d.Mood == nil &&
		d.Emotion == nil &&
		d.Relationship == nil &&
		d.Desires == nil &&
		d.Stats == nil &&
		d.VoiceMuted == nil
}

func (d Delta) apply(a *AgentState) {
	if d.Mood != nil {
		a.Mood = *d.Mood
	}
	if d.Emotion != nil {
		setFloat(&a.Emotion.Pleasure, d.Emotion.Pleasure)
		setFloat(&a.Emotion.Arousal, d.Emotion.Arousal)
		setFloat(&a.Emotion.Dominance, d.Emotion.Dominance)
	}
	if d.Relationship != nil {
		setFloat(&a.Relationship.Trust, d.Relationship.Trust)
		setFloat(&a.Relationship.Respect, d.Relationship.Respect)
		setFloat(&a.Relationship.Attachment, d.Relationship.Attachment)
		setFloat(&a.Relationship.Annoyance, d.Relationship.Annoyance)
		if d.Relationship.Status != nil {
			a.Relationship.Status = *d.Relationship.Status
		}
		if d.Relationship.Interactions != nil {
			a.Relationship.Interactions = *d.Relationship.Interactions
		}
	}
	if d.Desires != nil {
		if d.Desires.PrimaryGoals != nil {
			a.Desires.PrimaryGoals = append([]string(nil), d.Desires.PrimaryGoals...)
		}
		if d.Desires.ShortTermGoals != nil {
			a.Desires.ShortTermGoals = append([]string(nil), d.Desires.ShortTermGoals...)
		}
		if d.Desires.Frustrations != nil {
			a.Desires.Frustrations = *d.Desires.Frustrations
		}
		if d.Desires.Satisfied != nil {
			a.Desires.Satisfied = *d.Desires.Satisfied
		}
	}
	if d.Stats != nil {
		setFloat(&a.Stats.CPU, d.Stats.CPU)
		setFloat(&a.Stats.RAM, d.Stats.RAM)
		setFloat(&a.Stats.Battery, d.Stats.Battery)
		if d.Stats.Plugged != nil {
			a.Stats.Plugged = *d.Stats.Plugged
		}
	}
	if d.VoiceMuted != nil {
		a.VoiceMuted = *d.VoiceMuted
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
