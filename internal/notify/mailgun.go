package notify

import (
	"context"

	"github.com/mailgun/mailgun-go/v4"
	"teknologiumum.com/pesto/models"
)

type MailgunNotifier struct {
	mg   *mailgun.MailgunImpl
	from string
}

// NewMailgunNotifier sends through the mailgun domain. apiBase overrides the
// default US endpoint when set.
func NewMailgunNotifier(domain string, apiKey string, apiBase string, from string) *MailgunNotifier {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &MailgunNotifier{
		mg:   mg,
		from: from,
	}
}

func (n *MailgunNotifier) Notify(ctx context.Context, email models.Email) error {
	to := email.To
	if email.ToName != "" {
		to = email.ToName + " <" + email.To + ">"
	}

	m := n.mg.NewMessage(n.from, email.Subject, email.Text, to)
	if email.HTML != "" {
		m.SetHtml(email.HTML)
	}

	if _, _, err := n.mg.Send(ctx, m); err != nil {
		return classify(mailgun.GetStatusFromErr(err), err)
	}
	return nil
}
