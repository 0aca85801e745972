package bot

import (
	"context"

	"github.com/tanhuynh/groovebot/internal/database"
)

// guildSettingsStore adapts the database queries to the playback
// backend's settings interface.
type guildSettingsStore struct {
	queries *database.Queries
}

func (s *guildSettingsStore) GuildVolume(ctx context.Context, guildID string) (int, error) {
	settings, err := s.queries.GetGuildSettings(ctx, guildID)
	if err != nil {
		return 0, err
	}
	return settings.Volume, nil
}

func (s *guildSettingsStore) SaveGuildVolume(ctx context.Context, guildID string, volume int) error {
	return s.queries.SetGuildVolume(ctx, guildID, volume)
}
