package mailer

import "fmt"

// Job kinds understood by the email worker.
const (
	KindVerifyEmail     = "verify_email"
	KindResetPassword   = "reset_password"
	KindPasswordChanged = "password_changed"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Delivery is fire-and-forget relative to the request that enqueued it.
type EmailJob struct {
	To   string `json:"to"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

// Render builds the subject and HTML body for a job.
func (j EmailJob) Render() (subject, html string, err error) {
	switch j.Kind {
	case KindVerifyEmail:
		return "Please verify your account",
			fmt.Sprintf(`<h1>Please click <a href=%q><strong>here</strong></a> to verify your account</h1>`, j.Link),
			nil
	case KindResetPassword:
		return "Reset your password",
			fmt.Sprintf(`<h1>Please click <a href=%q><strong>here</strong></a> to reset your password</h1>`, j.Link),
			nil
	case KindPasswordChanged:
		return "Your password was changed",
			"<h1>Your password was changed successfully. If this wasn't you, reset it immediately.</h1>",
			nil
	default:
		return "", "", fmt.Errorf("unknown email kind %q", j.Kind)
	}
}
