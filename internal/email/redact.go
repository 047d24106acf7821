package email

import "strings"

// RedactAddress masks an email address for logging: everything after the
// first character of the local part becomes "***". A string with no "@" is
// masked entirely so malformed input can't leak PII into logs.
func RedactAddress(addr string) string {
	if addr == "" {
		return ""
	}

	at := strings.Index(addr, "@")
	if at < 0 {
		return "***"
	}
	if at == 0 {
		return "***" + addr[at:]
	}
	return addr[:1] + "***" + addr[at:]
}
