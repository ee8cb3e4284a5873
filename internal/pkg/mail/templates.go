package mail

import (
	"bytes"
	"html/template"
)

const verifyEmailTpl = `<div style="font-family: sans-serif; padding: 20px;">
  <h2>Welcome to StoryNest!</h2>
  <p>Thank you for registering. Please click the button below to verify your email address:</p>
  <a href="{{.VerifyURL}}" target="_blank" style="background-color: #ca8a04; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; font-size: 16px;">
    Verify My Email
  </a>
  <p style="margin-top: 20px;">This link will expire in 24 hours.</p>
  <p>If you did not create this account, please ignore this email.</p>
</div>`

const resetPasswordTpl = `<div style="font-family: sans-serif; padding: 20px;">
  <h2>Password Reset</h2>
  <p>You requested a password reset. Click the button below to choose a new password:</p>
  <a href="{{.ResetURL}}" target="_blank" style="background-color: #ca8a04; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; font-size: 16px;">
    Reset My Password
  </a>
  <p style="margin-top: 20px;">This link will expire in 10 minutes.</p>
  <p>If you did not request this, please ignore this email.</p>
</div>`

var (
	verifyEmailTemplate   = template.Must(template.New("verify").Parse(verifyEmailTpl))
	resetPasswordTemplate = template.Must(template.New("reset").Parse(resetPasswordTpl))
)

// VerificationMessage builds the account-verification email.
func VerificationMessage(to, verifyURL string) Message {
	var html bytes.Buffer
	_ = verifyEmailTemplate.Execute(&html, map[string]string{"VerifyURL": verifyURL})
	return Message{
		To:      []string{to},
		Subject: "StoryNest - Email Verification",
		HTML:    html.String(),
		Text: "Welcome to StoryNest!\n" +
			"Please copy and paste the following URL into your browser to verify your email address:\n" +
			verifyURL + "\nThis link will expire in 24 hours.",
	}
}

// ResetPasswordMessage builds the password-reset email.
func ResetPasswordMessage(to, resetURL string) Message {
	var html bytes.Buffer
	_ = resetPasswordTemplate.Execute(&html, map[string]string{"ResetURL": resetURL})
	return Message{
		To:      []string{to},
		Subject: "StoryNest - Password Reset",
		HTML:    html.String(),
		Text: "You requested a password reset.\n" +
			"Open the following URL to choose a new password:\n" +
			resetURL + "\nThis link will expire in 10 minutes.",
	}
}
