package game

// AnimationKind is a one-shot visual effect.
type AnimationKind int

const (
	AnimationExplosion AnimationKind = iota
	AnimationRip
	AnimationSkeleton
	AnimationDiseaseCloud
	AnimationDie
)

func (k AnimationKind) String() string {
	switch k {
	case AnimationExplosion:
		return "explosion"
	case AnimationRip:
		return "rip"
	case AnimationSkeleton:
		return "skeleton"
	case AnimationDiseaseCloud:
		return "disease cloud"
	case AnimationDie:
		return "die"
	default:
		return "unknown"
	}
}

// AnimationEvent asks the renderer to play an animation centred on a map point.
type AnimationEvent struct {
	Kind AnimationKind `json:"kind" msgpack:"kind"`
	At   Point         `json:"at" msgpack:"at"`
}

// PixelTarget converts the event position to pixel space for tiles of the
// given size.
func (e AnimationEvent) PixelTarget(tileWidth, tileHeight int) (x, y int) {
	return int(e.At.X * float64(tileWidth)), int(e.At.Y * float64(tileHeight))
}

// SoundKind identifies a sound effect.
type SoundKind int

const (
	SoundExplosion SoundKind = iota
	SoundBombPut
	SoundWalk
	SoundKick
	SoundDiarrhea
	SoundSpring
	SoundSlow
	SoundDisease
	SoundClick
	SoundThrow
	SoundTrampoline
	SoundTeleport
	SoundDeath
	SoundWin
	SoundGoAway
	SoundGo
	SoundEarthquake
)

func (k SoundKind) String() string {
	switch k {
	case SoundExplosion:
		return "explosion"
	case SoundBombPut:
		return "bomb put"
	case SoundWalk:
		return "walk"
	case SoundKick:
		return "kick"
	case SoundDiarrhea:
		return "diarrhea"
	case SoundSpring:
		return "spring"
	case SoundSlow:
		return "slow"
	case SoundDisease:
		return "disease"
	case SoundClick:
		return "click"
	case SoundThrow:
		return "throw"
	case SoundTrampoline:
		return "trampoline"
	case SoundTeleport:
		return "teleport"
	case SoundDeath:
		return "death"
	case SoundWin:
		return "win"
	case SoundGoAway:
		return "go away"
	case SoundGo:
		return "go"
	case SoundEarthquake:
		return "earthquake"
	default:
		return "unknown"
	}
}

// SoundEvent asks the audio collaborator to play a sound. Team is only set
// for SoundWin.
type SoundEvent struct {
	Kind SoundKind `json:"kind" msgpack:"kind"`
	Team int       `json:"team,omitempty" msgpack:"team,omitempty"`
}

func (m *GameMap) sound(e SoundEvent) {
	m.soundEvents = append(m.soundEvents, e)
}

func (m *GameMap) animate(kind AnimationKind, at Point) {
	m.animationEvents = append(m.animationEvents, AnimationEvent{Kind: kind, At: at})
}

// DrainAnimationEvents returns and clears the queued animation events.
func (m *GameMap) DrainAnimationEvents() []AnimationEvent {
	events := m.animationEvents
	m.animationEvents = nil
	return events
}

// DrainSoundEvents returns and clears the queued sound events.
func (m *GameMap) DrainSoundEvents() []SoundEvent {
	events := m.soundEvents
	m.soundEvents = nil
	return events
}
