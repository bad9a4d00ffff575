package services

import (
	"fmt"
	"html/template"
	"strings"
)

type emailTemplate struct {
	subject func(t *EventTask) string
	body    *template.Template
}

const emailLayout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#f6f6f6;padding:24px">
<div style="max-width:560px;margin:0 auto;background:#fff;border-radius:8px;padding:32px">
<h2 style="margin-top:0">{{template "heading" .}}</h2>
{{template "content" .}}
<p style="color:#888;font-size:12px;margin-top:32px">HelpMarq</p>
</div></body></html>`

var emailFuncs = template.FuncMap{
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
}

func mustEmail(heading, content string) *template.Template {
	t := template.Must(template.New("layout").Funcs(emailFuncs).Parse(emailLayout))
	template.Must(t.New("heading").Parse(heading))
	template.Must(t.New("content").Parse(content))
	return t
}

var emailTemplates = map[string]emailTemplate{
	EventApplicationReceived: {
		subject: func(t *EventTask) string { return fmt.Sprintf("New application for %q", t.ProjectTitle) },
		body: mustEmail(`New application received`, `
<p>Hi {{.OwnerName}},</p>
<p><strong>{{.ReviewerUsername}}</strong> (level {{.ReviewerLevel}}, {{.ReviewerXP}} XP) wants to review <strong>{{.ProjectTitle}}</strong>.</p>
<p><strong>Qualifications:</strong> {{.Qualifications}}</p>
<p><strong>Focus areas:</strong> {{.FocusAreas}}</p>
<p>Approve or reject the application from your dashboard.</p>`),
	},
	EventApplicationApproved: {
		subject: func(t *EventTask) string { return fmt.Sprintf("Application approved for %q", t.ProjectTitle) },
		body: mustEmail(`You're approved`, `
<p>Hi {{.ReviewerUsername}},</p>
<p>Your application to review <strong>{{.ProjectTitle}}</strong> was approved.</p>
<p>Project link: <a href="{{.ProjectLink}}">{{.ProjectLink}}</a></p>
<p>Deadline: {{.Deadline.Format "Jan 2, 2006 15:04 MST"}}. Reward: {{.XPReward}} XP plus a rating bonus.</p>`),
	},
	EventApplicationRejected: {
		subject: func(*EventTask) string { return "Application update" },
		body: mustEmail(`Application update`, `
<p>Hi {{.ReviewerUsername}},</p>
<p>Your application for <strong>{{.ProjectTitle}}</strong> was not accepted this time.</p>
{{if .RejectionReason}}<p><strong>Reason:</strong> {{.RejectionReason}}</p>{{end}}
<p>There are plenty of other projects waiting for reviewers.</p>`),
	},
	EventFeedbackSubmitted: {
		subject: func(t *EventTask) string { return fmt.Sprintf("New feedback for %q", t.ProjectTitle) },
		body: mustEmail(`Your review is in`, `
<p>Hi {{.OwnerName}},</p>
<p><strong>{{.ReviewerUsername}}</strong> submitted feedback for <strong>{{.ProjectTitle}}</strong>:</p>
<blockquote style="border-left:3px solid #ddd;padding-left:12px;color:#444">{{.FeedbackPreview}}</blockquote>
<p>Rate the feedback to award the reviewer their XP.</p>`),
	},
	EventFeedbackRated: {
		subject: func(*EventTask) string { return "You earned XP!" },
		body: mustEmail(`+{{.XPAwarded}} XP`, `
<p>Hi {{.ReviewerUsername}},</p>
<p>Your feedback on <strong>{{.ProjectTitle}}</strong> was rated {{if .OwnerRating}}{{deref .OwnerRating}}/5{{end}}.</p>
<p>You now have {{.ReviewerXP}} XP across {{.ReviewerTotalReviews}} reviews (average rating {{printf "%.2f" .ReviewerAverageRating}}).</p>
{{if .LeveledUp}}<p><strong>Level up!</strong> You reached level {{.ReviewerLevel}}.</p>{{end}}`),
	},
	EventProjectCreated: {
		subject: func(t *EventTask) string {
			if t.FirstProject {
				return "Welcome to HelpMarq"
			}
			return "Project uploaded successfully"
		},
		body: mustEmail(`{{.ProjectTitle}} is live`, `
<p>Hi {{.OwnerName}},</p>
{{if .FirstProject}}<p>Welcome aboard! This is your first project on HelpMarq.</p>{{end}}
<p>Your {{.ProjectCategory}} project <strong>{{.ProjectTitle}}</strong> is now open to reviewers with a reward of {{.XPReward}} XP.</p>`),
	},
	EventMessageSent: {
		subject: func(t *EventTask) string { return fmt.Sprintf("New message about %q", t.ProjectTitle) },
		body: mustEmail(`New message from {{.SenderName}}`, `
<p>Hi {{.RecipientName}},</p>
<blockquote style="border-left:3px solid #ddd;padding-left:12px;color:#444">{{.MessagePreview}}</blockquote>`),
	},
	EventDeadlineReminder: {
		subject: func(t *EventTask) string { return fmt.Sprintf("Reminder: %q is due in %dh", t.ProjectTitle, t.HoursLeft) },
		body: mustEmail(`Deadline approaching`, `
<p>Hi {{.ReviewerUsername}},</p>
<p>Feedback for <strong>{{.ProjectTitle}}</strong> is due in {{.HoursLeft}} hours.</p>
<p>Project link: <a href="{{.ProjectLink}}">{{.ProjectLink}}</a></p>`),
	},
}

// renderEmail builds the subject and HTML body for a task.
func renderEmail(task *EventTask) (string, string, error) {
	tmpl, ok := emailTemplates[task.Event]
	if !ok {
		return "", "", fmt.Errorf("no email template for event %q", task.Event)
	}
	var b strings.Builder
	if err := tmpl.body.Execute(&b, task); err != nil {
		return "", "", err
	}
	return tmpl.subject(task), b.String(), nil
}
