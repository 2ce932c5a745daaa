package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRounds(matchID uuid.UUID) []RoundResult {
	return []RoundResult{
		{
			MatchID: matchID, GameNumber: 2, GamesTotal: 2, MapName: "classic",
			WinnerTeam: 1, Duration: 40 * time.Second,
			Players: []PlayerResult{
				{Number: 0, Name: "alice", Team: 0, Kills: 0, TotalKills: 2, TotalWins: 1},
				{Number: 1, Name: "bob", Team: 1, Kills: 1, Won: true, TotalKills: 1, TotalWins: 1},
				{Number: 2, Name: "AI 2", Team: 2, AI: true, Kills: 3, TotalKills: 3},
			},
		},
		{
			MatchID: matchID, GameNumber: 1, GamesTotal: 2, MapName: "classic",
			WinnerTeam: 0, Duration: 30 * time.Second,
			Players: []PlayerResult{
				{Number: 0, Name: "alice", Team: 0, Kills: 2, Won: true, TotalKills: 2, TotalWins: 1},
				{Number: 1, Name: "bob", Team: 1, TotalKills: 0},
				{Number: 2, Name: "AI 2", Team: 2, AI: true},
			},
		},
	}
}

func TestMemoryStoreRounds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	matchID := uuid.New()

	for _, r := range sampleRounds(matchID) {
		require.NoError(t, s.SaveRound(ctx, r))
	}
	require.NoError(t, s.SaveRound(ctx, RoundResult{MatchID: uuid.New(), GameNumber: 1}))

	rounds, err := s.Rounds(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].GameNumber)
	assert.Equal(t, 2, rounds[1].GameNumber)
	assert.Len(t, rounds[1].Players, 3)
}

func TestMemoryStoreLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, r := range sampleRounds(uuid.New()) {
		require.NoError(t, s.SaveRound(ctx, r))
	}

	board, err := s.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2, "AI players are not ranked")

	assert.Equal(t, LeaderboardEntry{Name: "alice", Rounds: 2, Kills: 2, Wins: 1}, board[0])
	assert.Equal(t, LeaderboardEntry{Name: "bob", Rounds: 2, Kills: 1, Wins: 1}, board[1])

	top, err := s.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestMemoryStoreCopiesPlayers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	matchID := uuid.New()
	r := sampleRounds(matchID)[0]
	require.NoError(t, s.SaveRound(ctx, r))

	r.Players[0].Name = "mallory"
	rounds, err := s.Rounds(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, "alice", rounds[0].Players[0].Name)
}
