package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block represents one usage interval reported by the data source.
// A Block is immutable after ingestion; the engine never re-checks
// field presence.
type Block struct {
	Start  time.Time
	End    *time.Time // nil for active or open-ended sessions
	Tokens int
	Active bool
	Gap    bool
}

// EffectiveEnd returns the end of the interval for rate computations:
// now for active sessions, the reported end when present, otherwise now.
func (b Block) EffectiveEnd(now time.Time) time.Time {
	if b.Active || b.End == nil {
		return now
	}
	return *b.End
}

// Snapshot is one batch of blocks as returned by the data source.
type Snapshot struct {
	Blocks    []Block
	FetchedAt time.Time
}

// FindActive returns the first active block, or nil if none.
func FindActive(blocks []Block) *Block {
	for i := range blocks {
		if blocks[i].Active {
			return &blocks[i]
		}
	}
	return nil
}

// wireBlock mirrors the JSON shape emitted by ccusage. All fields but
// startTime are optional.
type wireBlock struct {
	StartTime     string `json:"startTime"`
	ActualEndTime string `json:"actualEndTime"`
	TotalTokens   int    `json:"totalTokens"`
	IsActive      bool   `json:"isActive"`
	IsGap         bool   `json:"isGap"`
}

type wirePayload struct {
	Blocks []json.RawMessage `json:"blocks"`
}

// Parse decodes a ccusage JSON payload into a Snapshot. Malformed blocks
// (wrong-typed fields, missing or unparseable startTime, end before start)
// are dropped individually; only a payload that is not valid JSON at all
// fails.
func Parse(data []byte, fetchedAt time.Time) (*Snapshot, error) {
	var payload wirePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode usage payload: %w", err)
	}

	snap := &Snapshot{
		Blocks:    make([]Block, 0, len(payload.Blocks)),
		FetchedAt: fetchedAt,
	}

	// Blocks decode one at a time so one bad record cannot take the
	// rest of the batch down with it.
	for _, raw := range payload.Blocks {
		var w wireBlock
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		b, ok := decodeBlock(w)
		if !ok {
			continue
		}
		snap.Blocks = append(snap.Blocks, b)
	}

	return snap, nil
}

func decodeBlock(w wireBlock) (Block, bool) {
	if w.StartTime == "" {
		return Block{}, false
	}

	start, err := time.Parse(time.RFC3339, w.StartTime)
	if err != nil {
		return Block{}, false
	}

	b := Block{
		Start:  start,
		Tokens: w.TotalTokens,
		Active: w.IsActive,
		Gap:    w.IsGap,
	}
	if b.Tokens < 0 {
		b.Tokens = 0
	}

	if w.ActualEndTime != "" {
		end, err := time.Parse(time.RFC3339, w.ActualEndTime)
		if err != nil || end.Before(start) {
			return Block{}, false
		}
		b.End = &end
	}

	return b, true
}
