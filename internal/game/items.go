package game

import (
	"fmt"
	"time"
)

// ItemKind is a pickup lying on a tile or held by a player. ItemNone means
// "no item".
type ItemKind int

const (
	ItemNone ItemKind = iota
	ItemFlame
	ItemSuperflame
	ItemBomb
	ItemShoe
	ItemSpeedup
	ItemSpring
	ItemDisease
	ItemMultibomb
	ItemRandom
	ItemBoxingGlove
	ItemDetonator
	ItemThrowingGlove

	numItemKinds
)

var itemCodes = map[byte]ItemKind{
	'f': ItemFlame,
	'F': ItemSuperflame,
	'b': ItemBomb,
	'k': ItemShoe,
	's': ItemSpeedup,
	'p': ItemSpring,
	'd': ItemDisease,
	'm': ItemMultibomb,
	'r': ItemRandom,
	'x': ItemBoxingGlove,
	'e': ItemDetonator,
	't': ItemThrowingGlove,
}

// randomItemPool is what ItemRandom resolves to on pickup.
var randomItemPool = []ItemKind{
	ItemFlame, ItemSuperflame, ItemBomb, ItemShoe, ItemSpeedup, ItemSpring,
	ItemDisease, ItemMultibomb, ItemBoxingGlove, ItemDetonator, ItemThrowingGlove,
}

// ParseItemCode converts a single-letter map code to an item.
func ParseItemCode(c byte) (ItemKind, error) {
	k, ok := itemCodes[c]
	if !ok {
		return ItemNone, fmt.Errorf("%w: %q", ErrUnknownItem, c)
	}
	return k, nil
}

// Code returns the single-letter map code of the item, or 0 for ItemNone.
func (k ItemKind) Code() byte {
	for c, kind := range itemCodes {
		if kind == k {
			return c
		}
	}
	return 0
}

// ParseItems decodes a multiset of item codes.
func ParseItems(s string) ([]ItemKind, error) {
	items := make([]ItemKind, 0, len(s))
	for i := 0; i < len(s); i++ {
		k, err := ParseItemCode(s[i])
		if err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, nil
}

func (k ItemKind) String() string {
	switch k {
	case ItemNone:
		return "none"
	case ItemFlame:
		return "flame"
	case ItemSuperflame:
		return "superflame"
	case ItemBomb:
		return "bomb"
	case ItemShoe:
		return "kicking shoe"
	case ItemSpeedup:
		return "speedup"
	case ItemSpring:
		return "spring"
	case ItemDisease:
		return "disease"
	case ItemMultibomb:
		return "multibomb"
	case ItemRandom:
		return "random"
	case ItemBoxingGlove:
		return "boxing glove"
	case ItemDetonator:
		return "detonator"
	case ItemThrowingGlove:
		return "throwing glove"
	default:
		return "unknown"
	}
}

// Disease is a temporary negative status caught from a disease item.
type Disease int

const (
	DiseaseNone Disease = iota
	DiseaseDiarrhea
	DiseaseSlow
	DiseaseReverseControls
	DiseaseShortFlame
	DiseaseSwitchPlayers
	DiseaseFastBomb
	DiseaseNoBomb
	DiseaseEarthquake
)

var diseasePool = []Disease{
	DiseaseDiarrhea, DiseaseSlow, DiseaseReverseControls, DiseaseShortFlame,
	DiseaseSwitchPlayers, DiseaseFastBomb, DiseaseNoBomb, DiseaseEarthquake,
}

func (d Disease) String() string {
	switch d {
	case DiseaseNone:
		return "none"
	case DiseaseDiarrhea:
		return "diarrhea"
	case DiseaseSlow:
		return "slow"
	case DiseaseReverseControls:
		return "reverse controls"
	case DiseaseShortFlame:
		return "short flame"
	case DiseaseSwitchPlayers:
		return "switch players"
	case DiseaseFastBomb:
		return "fast bomb"
	case DiseaseNoBomb:
		return "no bomb"
	case DiseaseEarthquake:
		return "earthquake"
	default:
		return "unknown"
	}
}

// applyItem gives an item's effect to a player. Random items are resolved
// here, at pickup time.
func (m *GameMap) applyItem(p *Player, k ItemKind) {
	if k == ItemRandom {
		k = randomItemPool[m.rng.Intn(len(randomItemPool))]
	}

	switch k {
	case ItemNone, ItemRandom:
		return
	case ItemDisease:
		m.infect(p, diseasePool[m.rng.Intn(len(diseasePool))])
		return
	case ItemSuperflame:
		p.items[ItemFlame] = MaxFlameLength - InitialFlameLength
	case ItemFlame:
		if p.FlameLength() < MaxFlameLength {
			p.items[ItemFlame]++
		}
	case ItemSpeedup:
		if p.baseSpeed() < MaxPlayerSpeed {
			p.items[ItemSpeedup]++
		}
	case ItemDetonator:
		p.items[ItemDetonator]++
		p.detonatorCharges += DetonatorCharges
	default:
		p.items[k]++
	}
	m.sound(SoundEvent{Kind: SoundClick})
}

// infect starts a disease on a player. Instant diseases take effect and leave
// the player healthy.
func (m *GameMap) infect(p *Player, d Disease) {
	m.animate(AnimationDiseaseCloud, p.pos)

	switch d {
	case DiseaseSwitchPlayers:
		m.switchWithRandomPlayer(p)
		m.sound(SoundEvent{Kind: SoundDisease})
		return
	case DiseaseEarthquake:
		m.StartEarthquake()
		return
	case DiseaseDiarrhea:
		m.sound(SoundEvent{Kind: SoundDiarrhea})
	case DiseaseSlow:
		m.sound(SoundEvent{Kind: SoundSlow})
	default:
		m.sound(SoundEvent{Kind: SoundDisease})
	}
	p.disease = d
	p.diseaseTime = DiseaseDuration
}

func (m *GameMap) switchWithRandomPlayer(p *Player) {
	var candidates []*Player
	for _, o := range m.players {
		if o != p && !o.IsDead() && !o.IsInAir() {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return
	}
	o := candidates[m.rng.Intn(len(candidates))]
	p.pos, o.pos = o.pos, p.pos
}

// updateDiseases advances disease timers and spreads diseases between players
// sharing a tile.
func (m *GameMap) updateDiseases(dt time.Duration) {
	for _, p := range m.players {
		if p.IsDead() || p.disease == DiseaseNone {
			continue
		}
		p.diseaseTime -= dt
		if p.diseaseTime <= 0 {
			p.disease = DiseaseNone
			p.diseaseTime = 0
		}
	}

	for _, p := range m.players {
		if p.IsDead() || p.IsInAir() || p.disease == DiseaseNone {
			continue
		}
		for _, o := range m.players {
			if o == p || o.IsDead() || o.IsInAir() || o.disease != DiseaseNone {
				continue
			}
			if o.Tile() == p.Tile() {
				o.disease = p.disease
				o.diseaseTime = DiseaseDuration
				m.sound(SoundEvent{Kind: SoundDisease})
			}
		}
	}
}

// pickUpItems lets every grounded living player consume the item on its tile.
func (m *GameMap) pickUpItems() {
	for _, p := range m.players {
		if p.IsDead() || p.IsInAir() {
			continue
		}
		t := m.TileAt(p.Tile())
		if t == nil || t.Kind != TileFloor || t.Item == ItemNone {
			continue
		}
		item := t.Item
		t.Item = ItemNone
		m.applyItem(p, item)
	}
}

type giveAway struct {
	at    time.Duration
	items []ItemKind
}

// scheduleGiveAway drops a dead player's items after GiveAwayDelay.
func (m *GameMap) scheduleGiveAway(items []ItemKind) {
	if len(items) == 0 {
		return
	}
	m.giveAways = append(m.giveAways, giveAway{at: m.time + GiveAwayDelay, items: items})
}

func (m *GameMap) updateGiveAways() {
	remaining := m.giveAways[:0]
	for _, g := range m.giveAways {
		if m.time < g.at {
			remaining = append(remaining, g)
			continue
		}
		free := m.freeTiles()
		m.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
		for i, item := range g.items {
			if i >= len(free) {
				break
			}
			m.TileAt(free[i]).Item = item
		}
	}
	m.giveAways = remaining
}

// freeTiles lists floor tiles with no item, bomb, flame, special object or
// living player.
func (m *GameMap) freeTiles() []Position {
	occupied := make(map[Position]bool)
	for _, p := range m.players {
		if !p.IsDead() {
			occupied[p.Tile()] = true
		}
	}
	var free []Position
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.tiles[y][x]
			if t.Kind != TileFloor || t.Item != ItemNone || t.Special != SpecialNone ||
				t.HasFlame() || occupied[t.Pos] || m.TileHasBomb(t.Pos) {
				continue
			}
			free = append(free, t.Pos)
		}
	}
	return free
}
