package rcon

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/juncraft/craftboard/internal/domain"
)

// PlayerList is the parsed reply of the `list` command.
type PlayerList struct {
	Online  int
	Max     int
	Players []string
}

var (
	listPattern      = regexp.MustCompile(`(?i)There are (\d+) of a max of (\d+) players online:(.*)`)
	tpsPattern       = regexp.MustCompile(`(?i)TPS from last 1m, 5m, 15m:\s*([\d.]+),?\s*([\d.]+),?\s*([\d.]+)`)
	numberPattern    = regexp.MustCompile(`[\d.]+`)
	versionPattern   = regexp.MustCompile(`(?i)running\s+(\w+)\s+version\s+(\S+)`)
	bareVersion      = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)
	whitelistPattern = regexp.MustCompile(`(?i)whitelisted players?:\s*(.*)`)
)

// Players runs `list` and parses the reply. A failed command or an
// unexpected reply shape yields an empty list.
func (g *Gateway) Players(ctx context.Context) PlayerList {
	result := g.Execute(ctx, "list")
	if !result.Success {
		return PlayerList{}
	}
	return ParsePlayerList(result.Response)
}

// ParsePlayerList parses "There are X of a max of Y players online: a, b".
func ParsePlayerList(response string) PlayerList {
	match := listPattern.FindStringSubmatch(response)
	if match == nil {
		return PlayerList{}
	}
	online, _ := strconv.Atoi(match[1])
	max, _ := strconv.Atoi(match[2])
	return PlayerList{Online: online, Max: max, Players: splitNames(match[3])}
}

// TPS runs `tps` and parses the reply. A failed command yields zeros; a
// reply that matches neither pattern assumes ideal performance.
func (g *Gateway) TPS(ctx context.Context) domain.TPS {
	result := g.Execute(ctx, "tps")
	if !result.Success {
		return domain.TPS{}
	}
	return ParseTPS(result.Response)
}

// ParseTPS parses "TPS from last 1m, 5m, 15m: 20.0, 20.0, 20.0", falling
// back to scanning for any three numbers, then to the ideal 20/20/20.
func ParseTPS(response string) domain.TPS {
	if match := tpsPattern.FindStringSubmatch(response); match != nil {
		return domain.TPS{
			OneMin:     parseFloat(match[1]),
			FiveMin:    parseFloat(match[2]),
			FifteenMin: parseFloat(match[3]),
		}
	}
	if numbers := numberPattern.FindAllString(response, -1); len(numbers) >= 3 {
		return domain.TPS{
			OneMin:     parseFloat(numbers[0]),
			FiveMin:    parseFloat(numbers[1]),
			FifteenMin: parseFloat(numbers[2]),
		}
	}
	return domain.TPS{OneMin: 20, FiveMin: 20, FifteenMin: 20}
}

// Version runs `version` and parses the reply into "Flavor x.y.z".
func (g *Gateway) Version(ctx context.Context) string {
	result := g.Execute(ctx, "version")
	if !result.Success {
		return "Unknown"
	}
	return ParseVersion(result.Response)
}

// ParseVersion parses "This server is running Paper version 1.21.1-..."
// with a bare version-number fallback.
func ParseVersion(response string) string {
	if match := versionPattern.FindStringSubmatch(response); match != nil {
		return match[1] + " " + match[2]
	}
	if v := bareVersion.FindString(response); v != "" {
		return v
	}
	return "Unknown"
}

// Whitelist runs `whitelist list` and returns the allowed usernames.
func (g *Gateway) Whitelist(ctx context.Context) []string {
	result := g.Execute(ctx, "whitelist list")
	if !result.Success {
		return nil
	}
	return ParseWhitelist(result.Response)
}

// ParseWhitelist parses "There are N whitelisted players: a, b".
func ParseWhitelist(response string) []string {
	match := whitelistPattern.FindStringSubmatch(response)
	if match == nil {
		return nil
	}
	return splitNames(match[1])
}

// WhitelistAdd allows a username to join the server.
func (g *Gateway) WhitelistAdd(ctx context.Context, player string) domain.CommandResult {
	return g.Execute(ctx, "whitelist add "+player)
}

// WhitelistRemove revokes a username's access.
func (g *Gateway) WhitelistRemove(ctx context.Context, player string) domain.CommandResult {
	return g.Execute(ctx, "whitelist remove "+player)
}

// WhitelistEnabled toggles whitelist enforcement.
func (g *Gateway) WhitelistEnabled(ctx context.Context, enabled bool) domain.CommandResult {
	if enabled {
		return g.Execute(ctx, "whitelist on")
	}
	return g.Execute(ctx, "whitelist off")
}

// Kick disconnects a player, with an optional reason.
func (g *Gateway) Kick(ctx context.Context, player, reason string) domain.CommandResult {
	if reason != "" {
		return g.Execute(ctx, fmt.Sprintf("kick %s %s", player, reason))
	}
	return g.Execute(ctx, "kick "+player)
}

// Ban bans a player, with an optional reason.
func (g *Gateway) Ban(ctx context.Context, player, reason string) domain.CommandResult {
	if reason != "" {
		return g.Execute(ctx, fmt.Sprintf("ban %s %s", player, reason))
	}
	return g.Execute(ctx, "ban "+player)
}

// Say broadcasts a message to all players.
func (g *Gateway) Say(ctx context.Context, message string) domain.CommandResult {
	return g.Execute(ctx, "say "+message)
}

// Msg whispers to a single player.
func (g *Gateway) Msg(ctx context.Context, player, message string) domain.CommandResult {
	return g.Execute(ctx, fmt.Sprintf("msg %s %s", player, message))
}

// Teleport moves a player to the given coordinates.
func (g *Gateway) Teleport(ctx context.Context, player string, x, y, z float64) domain.CommandResult {
	return g.Execute(ctx, fmt.Sprintf("tp %s %g %g %g", player, x, y, z))
}

// Weather sets the weather: clear, rain or thunder.
func (g *Gateway) Weather(ctx context.Context, weather string) domain.CommandResult {
	return g.Execute(ctx, "weather "+weather)
}

// SetTime sets the world time, e.g. "day", "night" or a tick count.
func (g *Gateway) SetTime(ctx context.Context, value string) domain.CommandResult {
	return g.Execute(ctx, "time set "+value)
}

// SetDifficulty sets the difficulty: peaceful, easy, normal or hard.
func (g *Gateway) SetDifficulty(ctx context.Context, difficulty string) domain.CommandResult {
	return g.Execute(ctx, "difficulty "+difficulty)
}

// SaveAll flushes all worlds to disk.
func (g *Gateway) SaveAll(ctx context.Context) domain.CommandResult {
	return g.Execute(ctx, "save-all")
}

func splitNames(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
