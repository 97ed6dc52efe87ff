// Package github provides GitHub team management functionality for teamops.
// It reconciles declarative team configurations against live organization
// state: parent and child teams, their membership, and their repository
// permissions.
//
// The package includes:
// - TeamAPI interface for the GitHub API operations the reconciler needs
// - Reconciler for planning and applying per-team changes
// - Syncer for driving reconciliation over many teams with logging
// - Structured error handling with retry support
package github
