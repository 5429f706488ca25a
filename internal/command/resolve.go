package command

import "strings"

// Resolve parses a command message. The first whitespace-separated token
// must be "/name" or "/name@bot"; the suffixed form matches only when bot
// equals botUsername, ignoring case. Payload is the rest of the text.
func Resolve(text, botUsername string) (name, payload string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	token := text
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		token = text[:i]
		payload = strings.TrimSpace(text[i+1:])
	}

	name = token[1:]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		name = name[:at]
		if botUsername == "" || !strings.EqualFold(target, botUsername) {
			return "", "", false
		}
	}
	if name == "" {
		return "", "", false
	}
	return name, payload, true
}
