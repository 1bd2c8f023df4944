package host

import (
	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/infrastructure/logging"
	"github.com/admitra/ultron-host/internal/state"
	"github.com/admitra/ultron-host/internal/statesync"
)

// LogPresenter renders everything to the log. It is what the bare
// binary ships with; a real UI replaces it.
type LogPresenter struct {
	logger *logging.Logger
}

// NewLogPresenter creates a presenter that writes to the given logger.
func NewLogPresenter(logger *logging.Logger) *LogPresenter {
	return &LogPresenter{logger: logger}
}

// Present marks the moment the UI would appear.
func (p *LogPresenter) Present() {
	p.logger.Info("presenting")
}

// EntryAppended logs a conversation entry.
func (p *LogPresenter) EntryAppended(e state.Entry) {
	p.logger.Info("entry",
		zap.String("kind", e.Kind.String()),
		zap.String("text", e.Text),
		zap.String("mood", e.Mood),
	)
}

// StateChanged logs the merged snapshot.
func (p *LogPresenter) StateChanged(s state.AgentState) {
	p.logger.Debug("state",
		zap.String("mood", s.Mood),
		zap.Float64("pleasure", s.Emotion.Pleasure),
		zap.Float64("arousal", s.Emotion.Arousal),
		zap.Float64("dominance", s.Emotion.Dominance),
		zap.Bool("muted", s.VoiceMuted),
	)
}

// ConnectionChanged logs push-channel transitions.
func (p *LogPresenter) ConnectionChanged(cs statesync.ConnState) {
	p.logger.Info("push channel", zap.String("state", cs.String()))
}
