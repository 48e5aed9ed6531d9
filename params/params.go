package params

import "time"

const (
	ServerBodyLimit       = 1048576 // 1 MiB
	ServerIdleTimeout     = 30 * time.Second
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 10 * time.Second
	HealthCheckServerAddr = ":3001" // health check server address

	RiskFailureWindow  = 5 * time.Minute // failure lookback used by the risk classifier
	RiskHighFailures   = 3               // prior failures in window for HIGH risk
	RiskMediumFailures = 2               // prior failures in window for MEDIUM risk

	BruteForceThreshold      = 5                // max failed attempts before flagging
	BruteForceWindow         = 15 * time.Minute // time window to check for patterns
	RapidFireThreshold       = 10               // attempts in short time = suspicious
	RapidFireWindow          = 1 * time.Minute
	UnusualHourStart         = 22 // unusual timing window is [22:00, 06:00)
	UnusualHourEnd           = 6
	UnusualTimingMinFailures = 2

	AlertDedupWindow = 1 * time.Hour // one unresolved alert per (subject, type) per window

	TopFailureSubjects   = 5  // subjects listed in the summary failure ranking
	DefaultSummaryHours  = 24 // summary lookback when the caller gives none
	DefaultActivityLimit = 50 // events returned by a user activity query

	DefaultRateLimitMax    = 120 // ingest requests per window per client
	DefaultRateLimitWindow = 1 * time.Minute

	APITokenExpiration = 24 * time.Hour // lifetime of tokens minted by the token command
)
