package domain

import "time"

// CommandResult is the normalized outcome of one remote command
// invocation. Failures are reported here, never as errors past the
// gateway boundary.
type CommandResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// CommandRecord is one entry in the gateway's bounded recent-command
// history, kept for the operator console.
type CommandRecord struct {
	ID      string        `json:"id"`
	Command string        `json:"command"`
	Result  CommandResult `json:"result"`
	At      time.Time     `json:"at"`
}

// ServerConfig is a snapshot of the server's static configuration as
// read from server.properties.
type ServerConfig struct {
	MOTD            string `json:"motd"`
	MaxPlayers      int    `json:"maxPlayers"`
	Difficulty      string `json:"difficulty"`
	Gamemode        string `json:"gamemode"`
	PVP             bool   `json:"pvp"`
	OnlineMode      bool   `json:"onlineMode"`
	SpawnProtection int    `json:"spawnProtection"`
	ViewDistance    int    `json:"viewDistance"`
	LevelName       string `json:"levelName"`
	ServerPort      int    `json:"serverPort"`
}
