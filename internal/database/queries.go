package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GuildSettings holds per-guild preferences that survive restarts
type GuildSettings struct {
	GuildID           string
	Volume            int
	AnnounceChannelID string
	UpdatedAt         time.Time
}

// Queries provides typed access to the database
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a query helper bound to a pool
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetGuildSettings loads a guild's settings. Guilds without a stored
// row get defaults.
func (q *Queries) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	const query = `
		SELECT guild_id, volume, announce_channel_id, updated_at
		FROM guild_settings
		WHERE guild_id = $1`

	settings := &GuildSettings{}
	err := q.pool.QueryRow(ctx, query, guildID).Scan(
		&settings.GuildID,
		&settings.Volume,
		&settings.AnnounceChannelID,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &GuildSettings{GuildID: guildID, Volume: 100}, nil
		}
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}

	return settings, nil
}

// UpsertGuildSettings stores a guild's settings
func (q *Queries) UpsertGuildSettings(ctx context.Context, settings *GuildSettings) error {
	const query = `
		INSERT INTO guild_settings (guild_id, volume, announce_channel_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET volume = $2, announce_channel_id = $3, updated_at = NOW()`

	_, err := q.pool.Exec(ctx, query, settings.GuildID, settings.Volume, settings.AnnounceChannelID)
	if err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}

	return nil
}

// SetGuildVolume persists just the volume for a guild
func (q *Queries) SetGuildVolume(ctx context.Context, guildID string, volume int) error {
	const query = `
		INSERT INTO guild_settings (guild_id, volume, announce_channel_id, updated_at)
		VALUES ($1, $2, '', NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET volume = $2, updated_at = NOW()`

	_, err := q.pool.Exec(ctx, query, guildID, volume)
	if err != nil {
		return fmt.Errorf("failed to save guild volume: %w", err)
	}

	return nil
}
