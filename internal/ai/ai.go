// Package ai implements the computer players. An AI reads the round through
// a game.View and answers with the same actions a human key map produces.
package ai

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amalg/go-bombman/internal/game"
)

const (
	// Decisions are repeated for a random time in this range.
	repeatActionsMin = 100 * time.Millisecond
	repeatActionsMax = 300 * time.Millisecond
	// After laying a bomb the AI decides again almost immediately so it does
	// not keep laying bombs on other tiles.
	recomputeAfterBomb = 10 * time.Millisecond
	// A player who has not changed tiles for this long is forced to move.
	deadlockTimeout = 10 * time.Second
)

// AI controls one player.
type AI struct {
	number int
	rng    *rand.Rand
	log    logrus.FieldLogger

	outputs     []game.PlayerAction
	recomputeAt time.Duration

	lastTile  game.Position
	lastMoved time.Duration
	started   bool
}

// New creates an AI for the player with the given number.
func New(number int, rng *rand.Rand, log logrus.FieldLogger) *AI {
	return &AI{
		number: number,
		rng:    rng,
		log:    log.WithField("ai", number),
	}
}

// Number is the number of the controlled player.
func (a *AI) Number() int { return a.number }

// situation bundles what one decision looks at.
type situation struct {
	v game.View
	p *game.Player
}

// Play returns the actions for this tick. Decisions are cached and repeated
// until the next recompute time, and while the player is in the air or
// teleporting.
func (a *AI) Play(v game.View) []game.PlayerAction {
	p := v.PlayerByNumber(a.number)
	if p == nil || p.IsDead() {
		return nil
	}

	now := v.Time()
	if !a.started || p.Tile() != a.lastTile {
		a.lastTile = p.Tile()
		a.lastMoved = now
		a.started = true
	}

	if now < a.recomputeAt || p.State() == game.StateInAir || p.State() == game.StateTeleporting {
		return a.outputs
	}

	s := situation{v: v, p: p}
	a.outputs = a.outputs[:0]

	current := p.Tile()
	trapped := s.isTrapped()
	ratings := s.rateBombEscapeDirections(current)

	if trapped {
		// Spin at random and try to box a way out.
		a.emitMove(p, game.MovementActions[a.rng.Intn(4)])
		if !v.DetonatorActive(p) {
			a.emit(game.ActionSpecial)
		}
		a.scheduleRecompute(now, false)
		return a.outputs
	}

	var (
		move   game.Action
		moving bool
	)
	switch {
	case v.TileHasBomb(current):
		move, moving = game.DirectionAction(bestEscape(ratings)), true
	default:
		move, moving = a.chooseMove(s)
	}

	if now-a.lastMoved > deadlockTimeout {
		move, moving = game.MovementActions[a.rng.Intn(4)], true
		a.log.Debug("forcing a move after standing still")
	}

	if moving {
		a.emitMove(p, move)
	}

	bombLaid := false
	if v.TileHasBomb(current) {
		if p.CanThrow() && maxRating(ratings) == 0 {
			a.emit(game.ActionBombDouble)
		}
	} else if p.BombsLeft() > 0 && (p.CanThrow() || v.DangerValue(current) > 2000*time.Millisecond && maxRating(ratings) > 0) {
		if a.rng.Intn(s.bombChance()+1) == 0 {
			bombLaid = true
			// The line is laid before this tick's move turns the player.
			if a.rng.Intn(3) == 0 && s.shouldLayMultibomb(p.Direction()) {
				a.emit(game.ActionBombDouble)
			} else {
				a.emit(game.ActionBomb)
			}
		}
	}

	detonatorActive := v.DetonatorActive(p)
	if !detonatorActive && p.CanBox() && v.TileHasBomb(v.Wrap(p.ForwardTile())) {
		a.emit(game.ActionSpecial)
	}

	a.scheduleRecompute(now, bombLaid)

	if detonatorActive && a.rng.Intn(3) == 0 && v.DangerValue(current) >= game.SafeDangerValue {
		a.emit(game.ActionSpecial)
	}

	return a.outputs
}

func (a *AI) scheduleRecompute(now time.Duration, bombLaid bool) {
	if bombLaid {
		a.recomputeAt = now + recomputeAfterBomb
		return
	}
	spread := int64(repeatActionsMax - repeatActionsMin)
	a.recomputeAt = now + repeatActionsMin + time.Duration(a.rng.Int63n(spread+1))
}

// emitMove emits a movement action. With reversed controls the opposite key
// is pressed so the player still goes where intended.
func (a *AI) emitMove(p *game.Player, move game.Action) {
	if p.Disease() == game.DiseaseReverseControls {
		move = move.Opposite()
	}
	a.emit(move)
}

func (a *AI) emit(action game.Action) {
	a.outputs = append(a.outputs, game.PlayerAction{Player: a.number, Action: action})
}

// chooseMove rates the current tile and its four neighbours and moves only
// if a neighbour scores strictly higher. Ties between the best neighbours
// are broken at random.
func (a *AI) chooseMove(s situation) (game.Action, bool) {
	current := s.p.Tile()
	best := s.rateTile(current)
	candidates := []int{-1}
	gx, gy := s.generalDirection()

	for _, d := range game.Directions {
		score := s.rateTile(s.v.Wrap(current.Add(d)))
		dx, dy := d.Vector()
		if dx == gx {
			score += 2
		}
		if dy == gy {
			score += 2
		}
		switch {
		case score > best:
			best = score
			candidates = []int{int(d)}
		case score == best:
			candidates = append(candidates, int(d))
		}
	}

	choice := candidates[a.rng.Intn(len(candidates))]
	if choice < 0 {
		return 0, false
	}
	return game.DirectionAction(game.Direction(choice)), true
}

// bestEscape returns the direction with the strictly highest rating, keeping
// the earlier direction on ties (up, right, down, left).
func bestEscape(ratings [4]int) game.Direction {
	best := game.DirUp
	for _, d := range game.Directions[1:] {
		if ratings[d] > ratings[best] {
			best = d
		}
	}
	return best
}

func maxRating(ratings [4]int) int {
	m := ratings[0]
	for _, r := range ratings[1:] {
		if r > m {
			m = r
		}
	}
	return m
}
