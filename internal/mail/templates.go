package mail

import (
	"fmt"
	"html"
)

// Welcome builds the greeting sent after registration.
func Welcome(name, email string) Message {
	return Message{
		To:       email,
		Subject:  "Welcome to the help desk",
		Template: "welcome",
		HTMLBody: fmt.Sprintf(`<html><body>
<h2>Hello %s,</h2>
<p>Your account is ready. You can now open support tickets and follow the answers from our team.</p>
</body></html>`, html.EscapeString(name)),
		PlainBody: fmt.Sprintf("Hello %s,\n\nYour account is ready. You can now open support tickets and follow the answers from our team.\n", name),
	}
}
