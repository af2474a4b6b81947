package notification

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const previewLimit = 200

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8" /></head>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background:#f4f4f5;padding:32px 0;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;">
        <tr>
          <td style="background:#B31B1B;padding:24px 32px;border-radius:8px 8px 0 0;">
            <span style="color:#ffffff;font-size:20px;font-weight:bold;">Cornell Project Teams</span>
          </td>
        </tr>
        <tr>
          <td style="background:#ffffff;padding:32px;border-radius:0 0 8px 8px;">
            {{template "content" .}}
          </td>
        </tr>
        <tr>
          <td style="padding:16px 32px;text-align:center;color:#71717a;font-size:12px;">
            This is an automated notification from the Cornell Project Team Common App.
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>{{end}}

{{define "button"}}
<table cellpadding="0" cellspacing="0" style="margin:24px 0;">
  <tr>
    <td style="background:#B31B1B;border-radius:6px;padding:12px 24px;">
      <a href="{{.Href}}" style="color:#ffffff;text-decoration:none;font-weight:bold;font-size:14px;">{{.Label}}</a>
    </td>
  </tr>
</table>{{end}}

{{define "quote"}}
<blockquote style="margin:0 0 24px;padding:12px 16px;background:#f4f4f5;border-left:4px solid #B31B1B;border-radius:4px;color:#3f3f46;font-size:14px;line-height:1.6;">
  {{.}}
</blockquote>{{end}}
`))

var contentTemplates = map[Kind]string{
	KindStatusChange: `{{define "content"}}
<h2 style="margin:0 0 16px;color:#18181b;font-size:18px;">Application Status Updated</h2>
<p style="margin:0 0 8px;color:#3f3f46;font-size:14px;line-height:1.6;">Hi {{.ApplicantName}},</p>
<p style="margin:0 0 16px;color:#3f3f46;font-size:14px;line-height:1.6;">
  Your application to <strong>{{.TeamName}}</strong> has been updated to:
</p>
<p style="margin:0 0 24px;font-size:16px;font-weight:bold;color:#B31B1B;">{{.Status}}</p>
{{template "button" .Button}}
{{end}}`,
	KindMessageToApplicant: `{{define "content"}}
<h2 style="margin:0 0 16px;color:#18181b;font-size:18px;">New Message</h2>
<p style="margin:0 0 8px;color:#3f3f46;font-size:14px;line-height:1.6;">Hi {{.ApplicantName}},</p>
<p style="margin:0 0 16px;color:#3f3f46;font-size:14px;line-height:1.6;">
  You received a new message from <strong>{{.TeamName}}</strong>:
</p>
{{template "quote" .Preview}}
{{template "button" .Button}}
{{end}}`,
	KindMessageToTeam: `{{define "content"}}
<h2 style="margin:0 0 16px;color:#18181b;font-size:18px;">New Applicant Message</h2>
<p style="margin:0 0 8px;color:#3f3f46;font-size:14px;line-height:1.6;">Hi {{.TeamName}} team,</p>
<p style="margin:0 0 16px;color:#3f3f46;font-size:14px;line-height:1.6;">
  <strong>{{.ApplicantName}}</strong> sent a new message on their application:
</p>
{{template "quote" .Preview}}
{{template "button" .Button}}
{{end}}`,
}

type button struct {
	Href  string
	Label string
}

type emailData struct {
	ApplicantName string
	TeamName      string
	Status        string
	Preview       string
	Button        button
}

// Email is a rendered notification ready for the mailer.
type Email struct {
	Subject string
	HTML    string
}

// Renderer turns notification content into email HTML.
type Renderer struct {
	siteURL string
	policy  *bluemonday.Policy
	pages   map[Kind]*template.Template
}

func NewRenderer(siteURL string) (*Renderer, error) {
	r := &Renderer{
		siteURL: strings.TrimRight(siteURL, "/"),
		policy:  bluemonday.StrictPolicy(),
		pages:   make(map[Kind]*template.Template, len(contentTemplates)),
	}
	for kind, content := range contentTemplates {
		base, err := emailTemplates.Clone()
		if err != nil {
			return nil, err
		}
		page, err := base.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.pages[kind] = page
	}
	return r, nil
}

// StatusChange renders the email sent to an applicant when a team decides.
func (r *Renderer) StatusChange(applicantName, teamName, status string) (*Email, error) {
	status = formatStatus(status)
	data := emailData{
		ApplicantName: r.name(applicantName),
		TeamName:      r.name(teamName),
		Status:        status,
		Button:        button{Href: r.siteURL + "/applications", Label: "View Your Applications"},
	}
	return r.render(KindStatusChange, fmt.Sprintf("Application Update: %s — %s", data.TeamName, status), data)
}

func (r *Renderer) MessageToApplicant(applicantName, teamName, body string) (*Email, error) {
	data := emailData{
		ApplicantName: r.name(applicantName),
		TeamName:      r.name(teamName),
		Preview:       Preview(r.clean(body)),
		Button:        button{Href: r.siteURL + "/applications", Label: "View Your Applications"},
	}
	return r.render(KindMessageToApplicant, "New message from "+data.TeamName, data)
}

func (r *Renderer) MessageToTeam(applicantName, teamName, body, teamID, applicationID string) (*Email, error) {
	data := emailData{
		ApplicantName: r.name(applicantName),
		TeamName:      r.name(teamName),
		Preview:       Preview(r.clean(body)),
		Button: button{
			Href:  fmt.Sprintf("%s/admin/%s/applications/%s", r.siteURL, teamID, applicationID),
			Label: "View Application",
		},
	}
	return r.render(KindMessageToTeam, "New message from applicant "+data.ApplicantName, data)
}

func (r *Renderer) render(kind Kind, subject string, data emailData) (*Email, error) {
	page, ok := r.pages[kind]
	if !ok {
		return nil, fmt.Errorf("no template for %s", kind)
	}
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return &Email{Subject: subject, HTML: buf.String()}, nil
}

// clean strips markup from user text. The template escapes the result again,
// so entities produced by the sanitizer are decoded first.
func (r *Renderer) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

// name cleans a display name and collapses it onto one line, since names
// end up in subjects.
func (r *Renderer) name(s string) string {
	return strings.Join(strings.Fields(r.clean(s)), " ")
}

// Preview truncates s to 200 characters, appending "..." when shortened.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLimit]) + "..."
}

func formatStatus(status string) string {
	if status == "" {
		return status
	}
	r, size := utf8.DecodeRuneInString(status)
	return strings.ToUpper(string(r)) + status[size:]
}
