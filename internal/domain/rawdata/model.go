package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entity types archived per match.
const (
	EntityGame    = "scoreboard_game"
	EntityPlayers = "scoreboard_players"
	EntityTeams   = "scoreboard_teams"
)

// Payload is one provider response kept verbatim for replay and audits.
// (Source, EntityType, EntityKey) identifies it; a newer body replaces the old one.
type Payload struct {
	Source          string
	EntityType      string
	EntityKey       string
	MatchExternalID string
	Body            []byte
	Hash            string
	SourceUpdatedAt *time.Time
}

// NewPayload keys the payload by match and hashes body.
func NewPayload(source, entityType, matchExternalID string, body []byte) Payload {
	sum := sha256.Sum256(body)
	return Payload{
		Source:          source,
		EntityType:      entityType,
		EntityKey:       matchExternalID,
		MatchExternalID: matchExternalID,
		Body:            body,
		Hash:            hex.EncodeToString(sum[:]),
	}
}

func (p Payload) Key() string {
	return p.Source + "|" + p.EntityType + "|" + p.EntityKey
}

// Dedupe keeps the last payload for each key, in first-seen order.
func Dedupe(items []Payload) []Payload {
	index := make(map[string]int, len(items))
	out := make([]Payload, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.Key()]; ok {
			out[i] = item
			continue
		}
		index[item.Key()] = len(out)
		out = append(out, item)
	}
	return out
}
