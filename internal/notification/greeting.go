package notification

import (
	"strings"
	"unicode"
)

// greetingName is the contact's name, or one guessed from the local part of
// the address ("grace.hopper@" greets Grace Hopper).
func greetingName(c Contact) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	local := c.Email
	if at := strings.IndexByte(local, '@'); at > 0 {
		local = local[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "borrower"
	}
	if len(parts) > 2 {
		parts = []string{parts[0], parts[len(parts)-1]}
	}
	for i, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

func greet(c Contact, body string) string {
	return "Dear " + greetingName(c) + ",\n\n" + body
}
