package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
)

const floorColor = lipgloss.Color("#1a1a2e")

// Color palette
var (
	// Tile styles
	wallStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3a3a3a")).
			Foreground(lipgloss.Color("#555555"))

	blockStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B6914")).
			Foreground(lipgloss.Color("#A0772B"))

	floorStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(floorColor)

	specialStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(lipgloss.Color("#44aaff"))

	lavaStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#aa1100")).
			Foreground(lipgloss.Color("#ff8800"))

	itemStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true)

	bombStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(lipgloss.Color("#ff4444")).
			Bold(true)

	fireStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#ff6600")).
			Foreground(lipgloss.Color("#ffcc00")).
			Bold(true)

	// One color per player number
	playerColors = []lipgloss.Color{
		lipgloss.Color("#00ff88"),
		lipgloss.Color("#4488ff"),
		lipgloss.Color("#ff44ff"),
		lipgloss.Color("#ffff44"),
		lipgloss.Color("#ff8844"),
		lipgloss.Color("#44ffff"),
		lipgloss.Color("#ffffff"),
		lipgloss.Color("#aa66ff"),
		lipgloss.Color("#88ff44"),
		lipgloss.Color("#ff6688"),
	}

	deadPlayerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	lobbyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44aaff")).
			Bold(true)

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true).
			Blink(true)

	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

func playerColor(number int) lipgloss.Color {
	return playerColors[number%len(playerColors)]
}

// RenderBoard converts a snapshot into a styled terminal string.
func RenderBoard(snap *game.Snapshot, me int) string {
	if snap == nil || len(snap.Tiles) == 0 {
		return "Waiting for game state..."
	}

	bombs := make(map[game.Position]game.BombSnapshot)
	for _, b := range snap.Bombs {
		bombs[b.Pos.Tile()] = b
	}

	players := make(map[game.Position]game.PlayerSnapshot)
	for _, p := range snap.Players {
		if p.State == game.StateDead {
			continue
		}
		pos := p.Pos.Tile()
		// The local player wins a shared tile
		if _, taken := players[pos]; !taken || p.Number == me {
			players[pos] = p
		}
	}

	var rows []string
	for y := 0; y < snap.Height; y++ {
		var cells []string
		for x := 0; x < snap.Width; x++ {
			pos := game.Position{X: x, Y: y}
			cells = append(cells, renderCell(snap.TileAt(pos), pos, bombs, players, me))
		}
		rows = append(rows, strings.Join(cells, ""))
	}

	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell. Each cell is 2 characters wide
// for a square-ish appearance.
func renderCell(
	tile *game.TileSnapshot,
	pos game.Position,
	bombs map[game.Position]game.BombSnapshot,
	players map[game.Position]game.PlayerSnapshot,
	me int,
) string {
	// Priority: Player > Fire > Bomb > Tile
	if p, ok := players[pos]; ok {
		return renderPlayer(p, me)
	}

	if tile.Flame {
		return fireStyle.Render(flameGlyph(tile.FlameDir))
	}

	if b, ok := bombs[pos]; ok {
		if b.Height > 0 {
			return bombStyle.Render("''")
		}
		if b.Detonator {
			return bombStyle.Render("[]")
		}
		return bombStyle.Render("()")
	}

	switch tile.Kind {
	case game.TileWall:
		return wallStyle.Render("██")
	case game.TileBlock:
		if tile.Pending {
			return fireStyle.Render("▒▒")
		}
		return blockStyle.Render("▒▒")
	}

	if tile.Item != game.ItemNone {
		return itemStyle.Render(" " + string(tile.Item.Code()))
	}
	return renderSpecial(tile.Special)
}

func renderPlayer(p game.PlayerSnapshot, me int) string {
	color := playerColor(p.Number)
	style := lipgloss.NewStyle().Background(floorColor).Foreground(color).Bold(true)

	label := fmt.Sprintf("P%d", p.Number+1)
	if p.Number >= 9 {
		label = fmt.Sprintf("%d", p.Number+1)
	}
	switch {
	case p.State == game.StateInAir:
		label = "^^"
	case p.Number == me:
		label = "██"
		style = style.Background(color)
	}
	return style.Render(label)
}

func renderSpecial(s game.SpecialObject) string {
	switch s {
	case game.SpecialTrampoline:
		return specialStyle.Render("~~")
	case game.SpecialTeleportA, game.SpecialTeleportB:
		return specialStyle.Render("@@")
	case game.SpecialArrowUp:
		return specialStyle.Render("↑ ")
	case game.SpecialArrowRight:
		return specialStyle.Render("→ ")
	case game.SpecialArrowDown:
		return specialStyle.Render("↓ ")
	case game.SpecialArrowLeft:
		return specialStyle.Render("← ")
	case game.SpecialLava:
		return lavaStyle.Render("≈≈")
	}
	return floorStyle.Render("  ")
}

func flameGlyph(d game.FlameDirection) string {
	switch d {
	case game.FlameHorizontal, game.FlameLeft, game.FlameRight:
		return "══"
	case game.FlameVertical, game.FlameUp, game.FlameDown:
		return "║║"
	}
	return "░░"
}

// RenderHUD renders the heads-up display showing player info and match status.
func RenderHUD(frame *match.Frame, me int, events []string) string {
	if frame == nil {
		return ""
	}

	var parts []string
	parts = append(parts, titleStyle.Render("💣 BOMBMAN"))
	parts = append(parts, "")

	snap := frame.Snapshot
	switch {
	case frame.Status == match.StatusLobby:
		parts = append(parts, lobbyStyle.Render("⏳ LOBBY: waiting for players..."))
		parts = append(parts, "   Press [Enter] to start, [T] to change team")
	case frame.Status == match.StatusOver:
		parts = append(parts, winnerStyle.Render("🏁 MATCH OVER"))
	case snap != nil:
		parts = append(parts, roundStatus(snap, frame.MapName)...)
	}
	parts = append(parts, "")

	parts = append(parts, dimStyle.Render("Players:"))
	if snap != nil {
		parts = append(parts, playerLines(snap, me)...)
	} else {
		for _, p := range frame.Players {
			parts = append(parts, lobbyLine(p, me))
		}
	}

	if len(events) > 0 {
		parts = append(parts, "")
		parts = append(parts, dimStyle.Render("Events:"))
		for _, e := range events {
			parts = append(parts, "  "+e)
		}
	}

	parts = append(parts, "")
	parts = append(parts, hintStyle.Render("WASD/Arrows: Move | C/Space: Bomb (twice: throw) | V/X: Special | Q: Quit"))

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func roundStatus(snap *game.Snapshot, mapName string) []string {
	lines := []string{dimStyle.Render(fmt.Sprintf("Game %d of %d on %s", snap.GameNumber, snap.GamesTotal, mapName))}

	switch snap.State {
	case game.MatchWaitingToPlay:
		lines = append(lines, lobbyStyle.Render("Get ready..."))
	case game.MatchPlaying:
		status := "🔥 GAME IN PROGRESS"
		if snap.RemainingMs >= 0 {
			status += fmt.Sprintf("  %s", formatClock(snap.RemainingMs))
		}
		lines = append(lines, alertStyle.Render(status))
	case game.MatchFinishing, game.MatchGameOver:
		if snap.WinnerTeam == game.NoWinner {
			lines = append(lines, dimStyle.Render("💀 DRAW"))
		} else {
			lines = append(lines, winnerStyle.Render(fmt.Sprintf("🏆 %s WINS!", teamName(snap, snap.WinnerTeam))))
		}
	}
	if snap.Earthquake {
		lines = append(lines, alertStyle.Render("EARTHQUAKE!"))
	}
	return lines
}

func formatClock(ms int64) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// teamName names a team after its player when it has only one.
func teamName(snap *game.Snapshot, team int) string {
	var names []string
	for _, p := range snap.Players {
		if p.Team == team {
			names = append(names, p.Name)
		}
	}
	if len(names) == 1 {
		return names[0]
	}
	return fmt.Sprintf("TEAM %d", team+1)
}

func playerLines(snap *game.Snapshot, me int) []string {
	players := append([]game.PlayerSnapshot(nil), snap.Players...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Team < players[j].Team })

	var lines []string
	for _, p := range players {
		nameStyle := lipgloss.NewStyle().Foreground(playerColor(p.Number))
		status := "❤️ "
		if p.State == game.StateDead {
			status = "💀"
			nameStyle = deadPlayerStyle
		}

		marker := "  "
		if p.Number == me {
			marker = "→ "
		}

		line := fmt.Sprintf("%s%s %s [T%d 💣×%d 🔥%d ⚔%d 🏆%d]",
			marker,
			status,
			nameStyle.Render(p.Name),
			p.Team+1,
			p.Bombs,
			p.Flame,
			p.Kills,
			p.Wins,
		)
		if p.Disease != game.DiseaseNone {
			line += " " + alertStyle.Render(p.Disease.String())
		}
		lines = append(lines, line)
	}
	return lines
}

func lobbyLine(p match.LobbyPlayer, me int) string {
	marker := "  "
	if p.Number == me {
		marker = "→ "
	}
	kind := ""
	if p.Kind == match.SlotAI {
		kind = dimStyle.Render(" (AI)")
	}
	name := lipgloss.NewStyle().Foreground(playerColor(p.Number)).Render(p.Name)
	return fmt.Sprintf("%s%s T%d%s", marker, name, p.Team+1, kind)
}
