package mail

import (
	"bytes"
	"html/template"
)

// Subjects of the transactional emails.
const (
	SubjectAssignment = "Nouveau ticket assigné"
	SubjectResolved   = "Votre ticket a été résolu"
)

var assignmentTmpl = template.Must(template.New("assignment").Parse(
	`<p>Bonjour {{.AgentName}},</p>
<p>Le ticket <strong>{{.TicketNumber}}</strong> vous a été assigné.</p>
<ul>
<li>Titre : {{.Title}}</li>
<li>Priorité : {{.Priority}}</li>
</ul>
<p>Merci de traiter ce ticket dans les meilleurs délais.</p>`))

var resolvedTmpl = template.Must(template.New("resolved").Parse(
	`<p>Bonjour {{.ClientName}},</p>
<p>Votre ticket <strong>{{.TicketNumber}}</strong> ({{.Title}}) a été résolu.</p>
{{if .Notes}}<p>Notes de résolution : {{.Notes}}</p>{{end}}`))

// AssignmentData fills the agent assignment email.
type AssignmentData struct {
	AgentName    string
	TicketNumber string
	Title        string
	Priority     string
}

// ResolvedData fills the client resolution email.
type ResolvedData struct {
	ClientName   string
	TicketNumber string
	Title        string
	Notes        string
}

// AssignmentEmail renders the email sent to a newly assigned agent.
func AssignmentEmail(to string, data AssignmentData) (Message, error) {
	return render(to, SubjectAssignment, assignmentTmpl, data)
}

// ResolvedEmail renders the email sent to the client on resolution.
func ResolvedEmail(to string, data ResolvedData) (Message, error) {
	return render(to, SubjectResolved, resolvedTmpl, data)
}

func render(to, subject string, tmpl *template.Template, data any) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
