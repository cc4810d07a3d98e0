package batch

import "context"

// OfflineGenerator satisfies Generator without consulting any oracle. Offline
// runs exercise the whole pipeline (diff retrieval, preparation, prompting,
// extraction, persistence) against a fixed low-confidence verdict.
type OfflineGenerator struct{}

func (OfflineGenerator) Generate(context.Context, string, int) (string, error) {
	return offlineResponse, nil
}

const offlineResponse = `FINAL: FLOSS
{"refactoring_type": "floss", "justification": "offline mode, no oracle consulted", "technical_evidence": "not evaluated", "confidence_level": "low"}`
