// Package properties reads the game server's server.properties file.
// All reads are best-effort snapshots: a missing or malformed file never
// raises past this boundary, callers fall back to defaults.
package properties

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/juncraft/craftboard/internal/domain"
)

// Defaults used when the properties file is unreadable or a key is
// absent.
const (
	DefaultMOTD       = "§bJunCraft §7- §aWelcome!"
	DefaultMaxPlayers = 20
)

// Reader implements domain.ConfigReader over a server.properties file.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a properties reader for the given path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{
		path:   path,
		logger: logger.With("component", "properties", "path", path),
	}
}

// IsReadable reports whether the properties file can be opened for
// reading.
func (r *Reader) IsReadable() bool {
	f, err := os.Open(r.path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ReadConfig parses the properties file into a typed snapshot. Any read
// or parse failure yields the hardcoded defaults.
func (r *Reader) ReadConfig() domain.ServerConfig {
	props := r.parse()
	return domain.ServerConfig{
		MOTD:            stringProp(props, "motd", DefaultMOTD),
		MaxPlayers:      intProp(props, "max-players", DefaultMaxPlayers),
		Difficulty:      stringProp(props, "difficulty", "normal"),
		Gamemode:        stringProp(props, "gamemode", "survival"),
		PVP:             props["pvp"] != "false",
		OnlineMode:      props["online-mode"] != "false",
		SpawnProtection: intProp(props, "spawn-protection", 16),
		ViewDistance:    intProp(props, "view-distance", 10),
		LevelName:       stringProp(props, "level-name", "world"),
		ServerPort:      intProp(props, "server-port", 25565),
	}
}

// parse reads the file into key-value pairs, honoring Java properties
// comment and escape rules.
func (r *Reader) parse() map[string]string {
	props := make(map[string]string)

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn("failed to read server.properties, using defaults", "error", err)
		return props
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		sep := separatorIndex(trimmed)
		if sep < 0 {
			continue
		}

		key := strings.TrimSpace(trimmed[:sep])
		value := unescape(strings.TrimSpace(trimmed[sep+1:]))
		props[key] = value
	}

	return props
}

// separatorIndex finds the first unescaped '=' or ':' in a line.
func separatorIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if (line[i] == '=' || line[i] == ':') && (i == 0 || line[i-1] != '\\') {
			return i
		}
	}
	return -1
}

var unescaper = strings.NewReplacer(
	`\#`, "#",
	`\!`, "!",
	`\:`, ":",
	`\=`, "=",
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, `\`,
)

func unescape(value string) string {
	return unescaper.Replace(value)
}

func stringProp(props map[string]string, key, fallback string) string {
	if v, ok := props[key]; ok && v != "" {
		return v
	}
	return fallback
}

func intProp(props map[string]string, key string, fallback int) int {
	v, ok := props[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
