package mail

import (
	"bytes"
	"html/template"
)

var (
	verificationTemplate = template.Must(template.New("verify").Parse(
		`<h1>Welcome, {{.Name}}!</h1>
<p>Please verify your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify Email</a></p>
<p>The link expires in {{.Expiry}}.</p>`))

	resetTemplate = template.Must(template.New("reset").Parse(
		`<h1>Password Reset Request</h1>
<p>You requested a password reset. Click the link below to set a new password:</p>
<p><a href="{{.Link}}">Reset Password</a></p>
<p>The link expires in {{.Expiry}}. If you did not request this, please ignore this email.</p>`))
)

type linkData struct {
	Name   string
	Link   string
	Expiry string
}

// VerificationMessage builds the email asking to confirm an address.
func VerificationMessage(from, to, name, link, expiry string) (Message, error) {
	return render(verificationTemplate, Message{From: from, To: to, Subject: "Verify your email"},
		linkData{Name: name, Link: link, Expiry: expiry})
}

// ResetMessage builds the password reset email.
func ResetMessage(from, to, link, expiry string) (Message, error) {
	return render(resetTemplate, Message{From: from, To: to, Subject: "Reset your password"},
		linkData{Link: link, Expiry: expiry})
}

func render(t *template.Template, msg Message, data linkData) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	msg.HTML = buf.String()
	return msg, nil
}
