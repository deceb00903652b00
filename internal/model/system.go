package model

// VersionInfo contains version and feature information for the application.
// DbVersion is the last applied schema migration.
type VersionInfo struct {
	AppVersion string          `json:"app_version"`
	DbVersion  string          `json:"db_version"`
	Features   map[string]bool `json:"features"`
}
