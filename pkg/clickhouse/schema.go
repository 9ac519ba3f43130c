package clickhouse

import (
	"context"
	"fmt"
)

// webLogsTableSQL mirrors loggen.LogRecord; columns follow its ch tags
const webLogsTableSQL = `
	CREATE TABLE IF NOT EXISTS %s.%s
	(
		timestamp         DateTime,
		user_id           UInt32,
		session_id        UUID,
		url               LowCardinality(String),
		ip_address        String,
		user_agent        LowCardinality(String),
		response_time_ms  UInt32,
		http_status       UInt16,
		referrer_url      LowCardinality(String)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (timestamp, user_id)`

// CreateSchema creates the client's database and the web logs table
func (c *Client) CreateSchema(ctx context.Context) error {
	if err := c.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", c.database)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", c.database, err)
	}

	if err := c.Exec(ctx, fmt.Sprintf(webLogsTableSQL, c.database, TableWebLogs)); err != nil {
		return fmt.Errorf("failed to create table %s.%s: %w", c.database, TableWebLogs, err)
	}

	return nil
}

// DropSchema drops the client's database and everything in it
func (c *Client) DropSchema(ctx context.Context) error {
	if err := c.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", c.database)); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", c.database, err)
	}
	return nil
}
