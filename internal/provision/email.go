// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"fmt"
	"html"
	"strings"

	"edutools/internal/canvas"
	"edutools/internal/gworkspace"
)

const credentialsSubject = "Your AWS account for this course"

// credentialsMail builds the credentials email for one student: plain text
// plus an HTML alternative.
func credentialsMail(student canvas.User, username, password, signInURL, senderName string) gworkspace.Message {
	firstName := student.Name
	if name, _, found := strings.Cut(student.Name, " "); found {
		firstName = name
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", firstName)
	text.WriteString("An AWS account has been created for you for this course.\n\n")
	fmt.Fprintf(&text, "Sign-in URL: %s\n", signInURL)
	fmt.Fprintf(&text, "Username:    %s\n", username)
	fmt.Fprintf(&text, "Password:    %s\n\n", password)
	text.WriteString("You will be asked to choose a new password the first time you sign in.\n")
	text.WriteString("Your account is limited to EC2 in the course region. Remember to stop\n")
	text.WriteString("or terminate instances when you finish a lab session.\n")
	if senderName != "" {
		fmt.Fprintf(&text, "\n%s\n", senderName)
	}

	var htmlBody strings.Builder
	htmlBody.WriteString("<html><body>")
	fmt.Fprintf(&htmlBody, "<p>Hi %s,</p>", html.EscapeString(firstName))
	htmlBody.WriteString("<p>An AWS account has been created for you for this course.</p>")
	htmlBody.WriteString("<table>")
	fmt.Fprintf(&htmlBody, `<tr><td>Sign-in URL</td><td><a href="%s">%s</a></td></tr>`, signInURL, html.EscapeString(signInURL))
	fmt.Fprintf(&htmlBody, "<tr><td>Username</td><td><code>%s</code></td></tr>", html.EscapeString(username))
	fmt.Fprintf(&htmlBody, "<tr><td>Password</td><td><code>%s</code></td></tr>", html.EscapeString(password))
	htmlBody.WriteString("</table>")
	htmlBody.WriteString("<p>You will be asked to choose a new password the first time you sign in. ")
	htmlBody.WriteString("Your account is limited to EC2 in the course region. Remember to stop ")
	htmlBody.WriteString("or terminate instances when you finish a lab session.</p>")
	if senderName != "" {
		fmt.Fprintf(&htmlBody, "<p>%s</p>", html.EscapeString(senderName))
	}
	htmlBody.WriteString("</body></html>")

	return gworkspace.Message{
		To:      student.Email,
		Subject: credentialsSubject,
		Text:    text.String(),
		HTML:    htmlBody.String(),
	}
}
