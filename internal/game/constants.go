package game

import (
	"errors"
	"time"
)

const (
	DefaultMapWidth  = 15
	DefaultMapHeight = 11

	FlameBurnoutTime    = 1000 * time.Millisecond
	BombFuseTime        = 3000 * time.Millisecond
	QuickFuseTime       = 800 * time.Millisecond
	DetonatorExpiration = 20000 * time.Millisecond

	// DetonatorDanger is how soon a bomb waiting for its detonator is assumed
	// to explode when computing danger.
	DetonatorDanger = 100 * time.Millisecond

	RollingSpeed = 4.0 // tiles per second
	FlyingSpeed  = 5.0 // tiles per second

	BasePlayerSpeed = 3.0
	SpeedupBonus    = 0.5
	MaxPlayerSpeed  = 8.0
	SlowSpeed       = 1.5

	JumpDuration       = 2000 * time.Millisecond
	AbilityDuration    = 200 * time.Millisecond
	DiseaseDuration    = 20000 * time.Millisecond
	GiveAwayDelay      = 3000 * time.Millisecond
	StartGameAfter     = 2500 * time.Millisecond
	FinishingDuration  = 2000 * time.Millisecond
	EarthquakeDuration = 10000 * time.Millisecond
	SafeDangerValue    = 5000 * time.Millisecond

	BoxThrowDistance   = 3
	MaxFlameLength     = 15
	InitialBombs       = 1
	InitialFlameLength = 1
	DetonatorCharges   = 3
	MaxPlayers         = 10
	NoWinner           = -1
)

// Map validation errors.
var (
	ErrMapFormat     = errors.New("malformed map")
	ErrTileCount     = errors.New("wrong tile count")
	ErrTeleportPair  = errors.New("unmatched teleport pair")
	ErrUnknownTile   = errors.New("unknown tile code")
	ErrUnknownItem   = errors.New("unknown item code")
	ErrMissingStart  = errors.New("no start position for player")
	ErrInvalidPlayer = errors.New("invalid player slot")
)
