package usecase

import (
	"context"
	"fmt"

	"github.com/lian220/quintiq-backend/internal/services/fusion"
	"github.com/lian220/quintiq-backend/pkg/logger"
)

// Combined runs technical analysis, then sentiment scoring, then fusion at the same date.
type Combined struct {
	analyzer *Analyzer
	scorer   *Scorer
	fuser    *fusion.Fuser
	l        *logger.Logger
}

func NewCombined(analyzer *Analyzer, scorer *Scorer, fuser *fusion.Fuser, l *logger.Logger) *Combined {
	return &Combined{analyzer: analyzer, scorer: scorer, fuser: fuser, l: orNopLogger(l)}
}

func (c *Combined) Run(ctx context.Context, asOf string) (CombinedSummary, error) {
	technical, err := c.analyzer.Analyze(ctx, asOf)
	if err != nil {
		return CombinedSummary{}, fmt.Errorf("technical stage: %w", err)
	}
	c.l.Info("combined analysis stage done", logger.String("stage", "technical"), logger.Int("verdicts", len(technical)))

	scores, err := c.scorer.Score(ctx, asOf)
	if err != nil {
		return CombinedSummary{}, fmt.Errorf("sentiment stage: %w", err)
	}
	c.l.Info("combined analysis stage done", logger.String("stage", "sentiment"), logger.Int("scores", len(scores)))

	result := c.fuser.Fuse(technical, scores)
	return summarizeCombined(technical, scores, result), nil
}
