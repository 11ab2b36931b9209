// Package logparse converts raw server log lines into typed domain
// events. Classification is a pure function over a prioritized pattern
// table: the first matching rule wins, and a line matching no rule is
// simply not an event.
package logparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/juncraft/craftboard/internal/domain"
)

// Death messages all start with the player name followed by one of a
// closed set of verb phrases. Kept in sync with the vanilla death
// message list.
const deathVerbs = `was slain|was shot|drowned|fell|burned|starved|suffocated|blew up|hit the ground|was killed|tried to swim|walked into|was pummeled|was squished|was impaled|was fireballed|was stung|froze|was skewered|went off with a bang|was squashed|discovered the floor was lava|experienced kinetic energy|didn't want to live|withered away|was poked to death|was pricked|died`

// marker matches the timestamp and optional thread tag that prefix
// every log line. All three shapes seen in the wild are accepted:
//
//	[10:15:22 INFO]:
//	[10:15:22 Server/INFO]:
//	[10:15:22] [Server thread/INFO]:
//
// The thread name is optional; only the level token is required.
const marker = `^\[(\d{2}:\d{2}:\d{2})\]?\s+(?:\[?[\w ]+/)?`

var (
	joinPattern        = regexp.MustCompile(marker + `INFO\]:\s+(\w+)\s+joined the game$`)
	loginPattern       = regexp.MustCompile(marker + `INFO\]:\s+(\w+)\[/(\d+\.\d+\.\d+\.\d+):\d+\]\s+logged in`)
	leavePattern       = regexp.MustCompile(marker + `INFO\]:\s+(\w+)\s+left the game$`)
	deathPattern       = regexp.MustCompile(marker + `INFO\]:\s+(\w+)\s+(` + deathVerbs + `)`)
	deathMessage       = regexp.MustCompile(`INFO\]:\s+(.+)$`)
	advancementPattern = regexp.MustCompile(marker + `INFO\]:\s+(\w+)\s+has made the advancement\s+\[(.+)\]$`)
	chatPattern        = regexp.MustCompile(marker + `INFO\]:\s+<(\w+)>\s+(.+)$`)
	warningPattern     = regexp.MustCompile(marker + `WARN\]:\s+(.+)$`)
	errorPattern       = regexp.MustCompile(marker + `ERROR\]:\s+(.+)$`)
)

// rule pairs a pattern with the function that builds the event from its
// submatches. Rules are tried in order; the first match wins.
type rule struct {
	pattern *regexp.Regexp
	build   func(line string, match []string) domain.Event
}

var rules = []rule{
	{joinPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventJoin,
			Player:  m[2],
			Message: m[2] + " joined the game",
			RawLine: line,
		}
	}},
	{leavePattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventLeave,
			Player:  m[2],
			Message: m[2] + " left the game",
			RawLine: line,
		}
	}},
	{loginPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime:   m[1],
			Kind:      domain.EventJoin,
			Player:    m[2],
			Message:   m[2] + " logged in",
			RawLine:   line,
			IPAddress: m[3],
		}
	}},
	{deathPattern, func(line string, m []string) domain.Event {
		// The message is the full remainder after the log-level marker,
		// not just the matched verb phrase.
		message := m[2] + " died"
		if dm := deathMessage.FindStringSubmatch(line); dm != nil {
			message = dm[1]
		}
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventDeath,
			Player:  m[2],
			Message: message,
			RawLine: line,
		}
	}},
	{advancementPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventAdvancement,
			Player:  m[2],
			Message: fmt.Sprintf("%s has made the advancement [%s]", m[2], m[3]),
			RawLine: line,
		}
	}},
	{chatPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventChat,
			Player:  m[2],
			Message: fmt.Sprintf("<%s> %s", m[2], m[3]),
			RawLine: line,
		}
	}},
	{warningPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventWarning,
			Message: m[2],
			RawLine: line,
		}
	}},
	{errorPattern, func(line string, m []string) domain.Event {
		return domain.Event{
			LogTime: m[1],
			Kind:    domain.EventError,
			Message: m[2],
			RawLine: line,
		}
	}},
}

// Classify parses a single log line into a typed event. It returns nil
// for blank lines and lines that match no rule; it never returns an
// error and never panics on malformed input.
func Classify(line string) *domain.Event {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(trimmed); m != nil {
			event := r.build(trimmed, m)
			return &event
		}
	}
	return nil
}
