// Package cache holds the workspace listing caches. Entries are keyed by
// organization and dropped whenever a workspace or workspace member is written.
package cache

import (
	"github.com/google/uuid"
)

const workspaceKeyPrefix = "cogzy:workspaces:"

// WorkspaceKey returns the cache key of an organization's workspace listing
func WorkspaceKey(orgID uuid.UUID) string {
	return workspaceKeyPrefix + orgID.String()
}

// GenerationKey returns the key of an organization's invalidation counter
func GenerationKey(orgID uuid.UUID) string {
	return WorkspaceKey(orgID) + ":gen"
}
