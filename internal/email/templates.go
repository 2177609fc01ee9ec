package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type alertEmailData struct {
	baseEmailData
	LeadName    string
	Priority    string
	Trigger     string
	Message     string
	IntentScore int
	Stage       string
	RaisedAt    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderAlertEmail(alert AlertEmail) (subject string, body string, err error) {
	data := alertEmailData{
		baseEmailData: baseEmailData{
			Title:      "Lead alert",
			Heading:    alert.LeadName,
			Subheading: alert.Message,
		},
		LeadName:    alert.LeadName,
		Priority:    strings.ToUpper(alert.Priority),
		Trigger:     strings.ReplaceAll(alert.Trigger, "_", " "),
		Message:     alert.Message,
		IntentScore: alert.IntentScore,
		Stage:       alert.Stage,
	}
	if !alert.RaisedAt.IsZero() {
		data.RaisedAt = alert.RaisedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	if alert.LeadURL != "" {
		data.CTALabel = "Open lead"
		data.CTAURL = alert.LeadURL
	}

	body, err = renderEmailTemplate("alert.html", data)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectAlertFmt, data.Priority, alert.LeadName), body, nil
}

// alertPlainText is the text/plain alternative for clients that skip HTML.
func alertPlainText(alert AlertEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(alert.Priority), alert.LeadName)
	if alert.Message != "" {
		fmt.Fprintf(&b, "%s\n\n", alert.Message)
	}
	fmt.Fprintf(&b, "Trigger: %s\n", strings.ReplaceAll(alert.Trigger, "_", " "))
	fmt.Fprintf(&b, "Intent score: %d\n", alert.IntentScore)
	fmt.Fprintf(&b, "Stage: %s\n", alert.Stage)
	if alert.LeadURL != "" {
		fmt.Fprintf(&b, "\nOpen lead: %s\n", alert.LeadURL)
	}
	return b.String()
}
