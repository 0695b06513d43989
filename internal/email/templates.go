package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// TemplateManager holds the compiled mail templates. Templates are
// compiled once at construction so a bad template fails startup, not a
// send.
type TemplateManager struct {
	templates map[string]*template.Template
}

var defaultTemplates = map[string]string{
	"welcome": `
<html><body>
<h2>Welcome to JobBridge, {{.UserName}}!</h2>
<p>Your {{.Message}} account is ready.</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}
</body></html>`,

	"application_status": `
<html><body>
<h2>Hello {{.UserName}},</h2>
<p>Your application for <b>{{.JobTitle}}</b> is now <b>{{.Status}}</b>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}
</body></html>`,

	"job_status": `
<html><body>
<h2>Hello {{.UserName}},</h2>
<p>Your job posting <b>{{.JobTitle}}</b> is now <b>{{.Status}}</b>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}
</body></html>`,

	"subscription_expiry": `
<html><body>
<h2>Hello {{.UserName}},</h2>
<p>Your <b>{{.PlanName}}</b> subscription expires in {{.DaysRemaining}} day(s).</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}
</body></html>`,

	"notification": `
<html><body>
<h2>{{.Subject}}</h2>
<p>{{.Message}}</p>
</body></html>`,
}

func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, body := range defaultTemplates {
		t, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		tm.templates[name] = t
	}
	return tm, nil
}

// Render executes the named template. An unknown template key is a
// permanent error: retrying cannot fix it.
func (tm *TemplateManager) Render(name string, data interface{}) (string, error) {
	t, ok := tm.templates[name]
	if !ok {
		return "", &PermanentError{Err: fmt.Errorf("unknown template %q", name)}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", &PermanentError{Err: fmt.Errorf("failed to render template %q: %w", name, err)}
	}
	return buf.String(), nil
}
