package notify

import (
	"fmt"
	"html"
	"strings"

	"teknologiumum.com/pesto/models"
)

const tokenIssuedSubject = "Your Pesto (the remote code execution engine) token!"

const tokenIssuedText = `Hello, %s! 👋

Sorry for the long wait. We've been occupied with some work outside the open source world. But, we got your registration submission for Pesto, the remote code execution engine.

Pesto users are still relatively low, so we'd love to get feedback from you. You can reply to this email, or open an issue on the GitHub repository. Feel free to request new features, report bugs, or even contribute to us, that will be so much appreciated.

Your token is:

%s

Thank you! Have a great day.`

const tokenIssuedHTML = `<b>Hello, %s! 👋</b><br><br>Sorry for the long wait. We've been occupied with some work outside the open source world. But, we got your registration submission for Pesto, the remote code execution engine.<br><br>Pesto users are still relatively low, so we'd love to get feedback from you. You can reply to this email, or open an issue on the GitHub repository. Feel free to request new features, report bugs, or even contribute to us, that will be so much appreciated.<br><br>Your token is:<br><br><code>%s</code><br><br>Thank you! Have a great day.`

// TokenIssuedEmail is sent to a user once their registration is approved.
func TokenIssuedEmail(user models.HumanUser, token string) models.Email {
	return models.Email{
		To:      user.Email,
		ToName:  user.Name,
		Subject: tokenIssuedSubject,
		Text:    fmt.Sprintf(tokenIssuedText, user.Name, token),
		HTML:    fmt.Sprintf(tokenIssuedHTML, html.EscapeString(user.Name), html.EscapeString(token)),
	}
}

// PendingDigestEmail summarises the waiting list and the lifecycle events
// recorded since the previous digest.
func PendingDigestEmail(operator string, pending []models.HumanUser, events []models.AuditEvent) models.Email {
	var text strings.Builder
	fmt.Fprintf(&text, "%d registration(s) are waiting for approval.\n\n", len(pending))
	for _, user := range pending {
		building := "-"
		if user.Building != nil && *user.Building != "" {
			building = *user.Building
		}
		fmt.Fprintf(&text, "- %s <%s> (building: %s, expected calls: %d)\n", user.Name, user.Email, building, user.Calls)
	}

	if len(events) > 0 {
		counts := map[models.AuditAction]int{}
		for _, event := range events {
			counts[event.Action]++
		}
		fmt.Fprintf(&text, "\nSince the last digest: %d approved, %d revoked, %d trial tokens issued.\n",
			counts[models.AuditApprove], counts[models.AuditRevoke], counts[models.AuditTrial])
	}

	return models.Email{
		To:      operator,
		Subject: fmt.Sprintf("Pesto waiting list: %d pending", len(pending)),
		Text:    text.String(),
		HTML:    "<pre>" + html.EscapeString(text.String()) + "</pre>",
	}
}
