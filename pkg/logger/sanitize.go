package logger

import "strings"

// SanitizedEmail masks an email address so logs never carry the full value.
// "alice@example.com" becomes "a****@*******.com".
func SanitizedEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	local := email[:at]
	domain := email[at+1:]

	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	// Keep the TLD readable, mask everything before it.
	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}

	return local + "@" + strings.Join(labels, ".")
}

var sensitiveQueryParams = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"apikey",
	"apitoken",
	"auth",
	"email",
}

// SanitizeQueryString reports whether a raw query string mentions a
// credential-bearing parameter and should be dropped from request logs.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveQueryParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
