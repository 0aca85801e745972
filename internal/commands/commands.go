package commands

import "github.com/bwmarrin/discordgo"

// GetCommands returns all slash command definitions
func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a track or playlist from a URL or search query",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Song name, YouTube/SoundCloud URL, or playlist URL",
					Required:    true,
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause the current track",
		},
		{
			Name:        "resume",
			Description: "Resume the paused track",
		},
		{
			Name:        "skip",
			Description: "Skip to the next track in the queue",
		},
		{
			Name:        "stop",
			Description: "Stop playback, clear the queue and leave the voice channel",
		},
		{
			Name:        "queue",
			Description: "Show the upcoming tracks",
		},
		{
			Name:        "nowplaying",
			Description: "Show the currently playing track",
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume level (0-100)",
					Required:    true,
				},
			},
		},
	}
}
