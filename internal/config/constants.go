package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 5
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Budget for the final queue flush after the server stops
const QueueFlushTimeout = 10 * time.Second

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Dashboard summary request timeout
const DashboardRequestTimeout = 10 * time.Second

// Background job intervals
const RetentionJobInterval = time.Minute
