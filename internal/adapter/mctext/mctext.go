// Package mctext handles Minecraft display-formatting control sequences:
// stripping § codes from RCON replies and decoding MOTD strings into
// styled segments for the dashboard.
package mctext

import (
	"regexp"
	"strings"
)

var colorCodePattern = regexp.MustCompile(`(?i)§[0-9a-fk-or]`)

// Strip removes all § formatting codes from text. RCON replies pass
// through here before being handed back to callers.
func Strip(text string) string {
	return colorCodePattern.ReplaceAllString(text, "")
}

// colorByCode maps § color codes to their hex values.
var colorByCode = map[byte]string{
	'0': "#000000", // black
	'1': "#0000AA", // dark blue
	'2': "#00AA00", // dark green
	'3': "#00AAAA", // dark aqua
	'4': "#AA0000", // dark red
	'5': "#AA00AA", // dark purple
	'6': "#FFAA00", // gold
	'7': "#AAAAAA", // gray
	'8': "#555555", // dark gray
	'9': "#5555FF", // blue
	'a': "#55FF55", // green
	'b': "#55FFFF", // aqua
	'c': "#FF5555", // red
	'd': "#FF55FF", // light purple
	'e': "#FFFF55", // yellow
	'f': "#FFFFFF", // white
}

// Segment is a run of MOTD text with uniform styling.
type Segment struct {
	Text          string `json:"text"`
	Color         string `json:"color,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Obfuscated    bool   `json:"obfuscated,omitempty"`
}

// DecodeMOTD splits a MOTD string with embedded § codes into styled
// segments. A color code resets formatting but keeps the new color; §r
// resets everything. Unknown codes are dropped.
func DecodeMOTD(motd string) []Segment {
	var segments []Segment
	current := Segment{}

	flush := func() {
		if current.Text != "" {
			segments = append(segments, current)
			current.Text = ""
		}
	}

	runes := []rune(motd)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '§' && i+1 < len(runes) {
			flush()
			code := byte(strings.ToLower(string(runes[i+1]))[0])
			switch {
			case colorByCode[code] != "":
				current = Segment{Color: colorByCode[code]}
			case code == 'r':
				current = Segment{}
			case code == 'l':
				current.Bold = true
			case code == 'o':
				current.Italic = true
			case code == 'n':
				current.Underline = true
			case code == 'm':
				current.Strikethrough = true
			case code == 'k':
				current.Obfuscated = true
			}
			i++
			continue
		}
		current.Text += string(runes[i])
	}
	flush()
	return segments
}
