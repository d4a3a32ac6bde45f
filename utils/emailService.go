package utils

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"ruralearn/logger"
	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Mailer sends transactional email through SendGrid. Without an API key it
// only logs what it would have sent.
type Mailer struct {
	key   string
	host  string
	from  *sgmail.Email
	log   *logger.Logger
	async bool
}

func NewMailer(apiKey, senderName, senderEmail string, baseLog *logger.Logger) *Mailer {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Mailer{
		key:   apiKey,
		host:  sendgridHost,
		from:  sgmail.NewEmail(senderName, senderEmail),
		log:   baseLog.With("component", "mailer"),
		async: true,
	}
}

// Generic Send Email
func (m *Mailer) SendEmail(toName, toEmail, subject, htmlBody string) error {
	if m.key == "" {
		m.log.Debug("email skipped, SENDGRID_API_KEY not set", "to", toEmail, "subject", subject)
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/html", htmlBody))

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		m.log.Error("email send failed", "to", toEmail, "subject", subject, "error", err)
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.log.Error("email rejected", "to", toEmail, "status", res.StatusCode, "body", res.Body)
		return fmt.Errorf("sendgrid returned %d", res.StatusCode)
	}
	m.log.Info("email sent", "to", toEmail, "subject", subject)
	return nil
}

func (m *Mailer) dispatch(toName, toEmail, subject, htmlBody string) error {
	if m.async {
		go m.SendEmail(toName, toEmail, subject, htmlBody)
		return nil
	}
	return m.SendEmail(toName, toEmail, subject, htmlBody)
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F7F2; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1F6F43; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1E2B22; line-height: 1.6; }
			.footer { background-color: #F4F7F2; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E9F5EC; padding: 15px; border-radius: 4px; border-left: 4px solid #E0A526; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>RURALEARN</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">Learning for every village and every city.</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// --- Triggers ---

// SendWelcomeEmail greets a newly registered learner.
func (m *Mailer) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome to <strong>RuraLearn</strong>! Your account is ready.</p>
		<p>Browse the catalog, enroll in a course and learn at your own pace.</p>
	`, html.EscapeString(name))
	return m.dispatch(name, email, "Welcome to RuraLearn", getEmailTemplate("Welcome!", body))
}

// EnrollmentCreated implements learning.Notifier.
func (m *Mailer) EnrollmentCreated(_ context.Context, user models.User, course courseModels.Course) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<div class="info-box">The course has %d lessons. Mark each one complete as you go to earn your certificate.</div>
	`, html.EscapeString(user.Name), html.EscapeString(course.Title), course.LessonCount)
	return m.dispatch(user.Name, user.Email, "Enrolled: "+course.Title, getEmailTemplate("Enrollment Confirmed", body))
}

// CertificateIssued implements learning.Notifier.
func (m *Mailer) CertificateIssued(_ context.Context, user models.User, course courseModels.Course, cert courseModels.Certificate) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing <strong>%s</strong>!</p>
		<div class="info-box">
			<strong>Certificate number:</strong> %s<br>
			<strong>Issued:</strong> %s
		</div>
		<p>Anyone can verify it with the certificate number.</p>
	`, html.EscapeString(user.Name), html.EscapeString(course.Title), cert.CertificateNumber, cert.IssueDate.Format("2 January 2006"))
	return m.dispatch(user.Name, user.Email, "Your certificate for "+course.Title, getEmailTemplate("Course Completed", body))
}
