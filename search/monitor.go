package search

import (
	"github.com/poiesic/chatter/core"
)

// ScoreMonitor provides hooks to observe the matching process.
// Implement this interface to surface per-candidate scores for diagnostics.
type ScoreMonitor interface {
	Start(query string)
	AfterExpansion(ids []core.WordID)
	Candidate(index int, question []core.WordID, score float64)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of ScoreMonitor
type noopMonitor struct{}

var _ ScoreMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterExpansion(_ []core.WordID)              {}
func (n *noopMonitor) Candidate(_ int, _ []core.WordID, _ float64) {}
func (n *noopMonitor) Finish(_ *Result)                            {}
