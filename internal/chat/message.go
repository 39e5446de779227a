// Package chat implements the websocket chat example.
//
// Browsers send {"chat_message": "..."} frames. Every message is fanned out
// to all sessions as htmx out-of-band swap fragments that append to the
// #messages and #messages2 lists. With a relay configured, messages travel
// through the relay first so that every server instance delivers them.
package chat

import (
	"fmt"
	"html"
)

// Inbound is the frame a browser sends (htmx ws-send of the chat form).
type Inbound struct {
	ChatMessage string `json:"chat_message"`
}

// Message is one chat line as exchanged between hubs.
type Message struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// usernameLen is how much of the session id is shown as the username.
const usernameLen = 8

// Username derives the display name of a session.
func Username(sessionID string) string {
	if len(sessionID) > usernameLen {
		return sessionID[:usernameLen]
	}
	if sessionID == "" {
		return "anonymous"
	}
	return sessionID
}

// Render produces the out-of-band swap fragment for m. All user supplied
// text is HTML-escaped.
func Render(m Message) []byte {
	text := html.EscapeString(m.Text)
	user := html.EscapeString(Username(m.SessionID))
	return fmt.Appendf(nil,
		"<div hx-swap-oob='beforeend:#messages'><p><b>%s</b>: %s</p></div>"+
			"<div hx-swap-oob='beforeend:#messages2'><p>%s</p></div>",
		user, text, text)
}
