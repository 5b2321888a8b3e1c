package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"lms/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: LMS <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// SendQuizAutoSubmittedEmail tells a learner their timed attempt was closed
// out by the expiry sweep.
func SendQuizAutoSubmittedEmail(email, name, quizTitle string, obtainedMarks int) {
	subject := "Your Quiz Attempt Was Automatically Submitted"
	body := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Quiz Auto-Submitted</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">Time's Up!</h2>
        <p>Dear ` + name + `,</p>
        <p>The time limit for <strong>` + quizTitle + `</strong> ran out, so your attempt was submitted automatically with the answers you had saved.</p>
        <div style="background: #E8F0FE; padding: 15px; border-radius: 4px; margin: 20px 0;">
            <p style="margin: 0;">Obtained marks: <strong>` + fmt.Sprintf("%d", obtainedMarks) + `</strong></p>
        </div>
        <p>You can review your result from your course dashboard.</p>
        <hr style="border: 1px solid #eee; margin: 20px 0;">
        <p style="font-size: 12px; color: #666;">This is an automated notification.</p>
    </div>
</body>
</html>`

	go SendEmail([]string{email}, subject, body)
}
