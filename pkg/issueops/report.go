package issueops

import (
	"fmt"
	"strings"

	"teamops/pkg/teams"
)

// SuccessComment renders the issue comment for an applied change request.
func SuccessComment(summary *ChangeSummary, configPath string) string {
	var b strings.Builder

	switch summary.Action {
	case ActionCreate:
		fmt.Fprintf(&b, "✅ Created configuration for team `%s`.\n", summary.Team)
	case ActionUpdate:
		fmt.Fprintf(&b, "✅ Updated configuration for team `%s`.\n", summary.Team)
	case ActionRemove:
		fmt.Fprintf(&b, "✅ Processed removals for team `%s`.\n", summary.Team)
	}

	if !summary.HasChanges() {
		b.WriteString("\nNo changes were necessary; the configuration already matched the request.\n")
		return b.String()
	}

	writeList(&b, "Members added", summary.AddedMembers)
	writeList(&b, "Members removed", summary.RemovedMembers)
	writeList(&b, "Repositories added", summary.AddedRepositories)
	writeList(&b, "Repositories removed", summary.RemovedRepositories)
	writeList(&b, "Child teams added", summary.AddedChildTeams)
	writeList(&b, "Child teams updated", summary.UpdatedChildTeams)
	writeList(&b, "Child teams removed", summary.RemovedChildTeams)

	fmt.Fprintf(&b, "\nConfiguration written to `%s`. The change will be synced to GitHub shortly.\n", configPath)
	return b.String()
}

// FailureComment renders the issue comment for a rejected change request,
// listing every validation problem found in the submission.
func FailureComment(err error) string {
	var b strings.Builder
	b.WriteString("⚠️ This team change request could not be processed.\n")

	if verrs, ok := teams.AsValidationErrors(err); ok {
		b.WriteString("\nThe following problems were found:\n")
		for _, ve := range verrs {
			b.WriteString("- ")
			b.WriteString(ve.Message)
			if ve.Value != "" {
				fmt.Fprintf(&b, " (got: `%s`)", ve.Value)
			}
			b.WriteString("\n")
		}
	} else {
		fmt.Fprintf(&b, "\n- %s\n", err.Error())
	}

	b.WriteString("\nPlease edit the issue to fix the problems above and re-trigger processing.\n")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
