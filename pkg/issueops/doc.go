// Package issueops turns structured team-change issues into persisted team
// configurations. It parses the issue-form body into a change request,
// validates every field in one pass, and applies the requested action
// (create, update or remove) to the team's stored configuration.
package issueops
