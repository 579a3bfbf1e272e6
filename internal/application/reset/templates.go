package reset

import (
	"fmt"
	"strings"
	"text/template"
)

const Subject = "Password Reset Request for Weather App"

// The link goes in verbatim in both bodies, hence text/template for the HTML too.
var htmlTmpl = template.Must(template.New("reset_html").Parse(`<html>
  <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2>Password Reset Request</h2>
    <p>You have requested to reset your password for the Weather App.</p>
    <p>Click the button below to reset your password:</p>
    <a href="{{.Link}}" style="display: inline-block; padding: 10px 20px; background-color: #4CAF50; color: white; text-decoration: none; border-radius: 5px;">Reset Password</a>
    <p>If you did not request a password reset, please ignore this email.</p>
    <p>This link will expire in {{.ExpiresIn}}.</p>
  </body>
</html>
`))

var textTmpl = template.Must(template.New("reset_text").Parse(`Password Reset Request for Weather App

Click the following link to reset your password:
{{.Link}}

If you did not request a password reset, please ignore this email.

This link will expire in {{.ExpiresIn}}.
`))

type templateData struct {
	Link      string
	ExpiresIn string
}

// BuildResetLink joins base and token without escaping the token.
func BuildResetLink(frontendURL, token string) string {
	return frontendURL + "/reset-password?token=" + token
}

func renderBodies(link string) (htmlBody, textBody string, err error) {
	data := templateData{Link: link, ExpiresIn: "1 hour"}

	var hb, tb strings.Builder
	if err := htmlTmpl.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	if err := textTmpl.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// BuildMessage renders the reset email for one recipient.
func BuildMessage(from, to, frontendURL, token string) (Message, error) {
	htmlBody, textBody, err := renderBodies(BuildResetLink(frontendURL, token))
	if err != nil {
		return Message{}, err
	}
	return Message{
		From:     from,
		To:       to,
		Subject:  Subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}
