package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		uniqid VARCHAR(64) NOT NULL UNIQUE,
		civility VARCHAR(10) NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password VARCHAR(255),
		role VARCHAR(50) NOT NULL DEFAULT 'customer',
		locale VARCHAR(10) NOT NULL DEFAULT 'en',
		timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	// Soft-deleted rows keep their email but must not block reuse.
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_active_key ON users (LOWER(email)) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS users_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		friend_code VARCHAR(32) NOT NULL DEFAULT '',
		team_color VARCHAR(20) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS users_providers_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		provider_token TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		CONSTRAINT users_providers_tokens_user_provider_key UNIQUE (user_id, provider),
		CONSTRAINT users_providers_tokens_provider_id_key UNIQUE (provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS profiles_media (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		profile_id UUID NOT NULL REFERENCES users_profiles(id) ON DELETE CASCADE,
		collection VARCHAR(50) NOT NULL,
		name VARCHAR(255) NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		mime_type VARCHAR(100) NOT NULL,
		size BIGINT NOT NULL,
		storage_key VARCHAR(500) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE (profile_id, collection)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		civility VARCHAR(10) NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		locale VARCHAR(10) NOT NULL DEFAULT 'en',
		subject VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at, id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_users_providers_tokens_user_id ON users_providers_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
