// Package store persists round results and answers leaderboard queries.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one player's line in a finished round.
type PlayerResult struct {
	Number int
	Name   string
	Team   int
	AI     bool
	// Kills scored in this round alone.
	Kills int
	Won   bool
	// Match totals after this round.
	TotalKills int
	TotalWins  int
}

// RoundResult is a finished round of a match.
type RoundResult struct {
	MatchID    uuid.UUID
	GameNumber int
	GamesTotal int
	MapName    string
	WinnerTeam int
	Duration   time.Duration
	PlayedAt   time.Time
	Players    []PlayerResult
}

// LeaderboardEntry aggregates results by player name.
type LeaderboardEntry struct {
	Name   string
	Rounds int
	Kills  int
	Wins   int
}

// ResultStore defines the interface for result persistence.
type ResultStore interface {
	SaveRound(ctx context.Context, r RoundResult) error
	Rounds(ctx context.Context, matchID uuid.UUID) ([]RoundResult, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Close() error
}

// MemoryStore keeps results in memory. It is used when no database is
// configured.
type MemoryStore struct {
	mu     sync.RWMutex
	rounds []RoundResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveRound(_ context.Context, r RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Players = append([]PlayerResult(nil), r.Players...)
	s.rounds = append(s.rounds, r)
	return nil
}

func (s *MemoryStore) Rounds(_ context.Context, matchID uuid.UUID) ([]RoundResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RoundResult
	for _, r := range s.rounds {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

// Leaderboard counts kills and won rounds per human player name, best first.
// AI players are not ranked.
func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*LeaderboardEntry)
	for _, r := range s.rounds {
		for _, p := range r.Players {
			if p.AI || p.Name == "" {
				continue
			}
			e, ok := byName[p.Name]
			if !ok {
				e = &LeaderboardEntry{Name: p.Name}
				byName[p.Name] = e
			}
			e.Rounds++
			if p.Won {
				e.Wins++
			}
			e.Kills += p.Kills
		}
	}

	out := make([]LeaderboardEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, *e)
	}
	sortLeaderboard(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		if entries[i].Kills != entries[j].Kills {
			return entries[i].Kills > entries[j].Kills
		}
		return entries[i].Name < entries[j].Name
	})
}
