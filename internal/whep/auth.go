package whep

import "net/http"

const headerAuthorization = "Authorization"

// AttachBearer sets a single Authorization: Bearer header when token is
// non-empty. The token is not validated.
func AttachBearer(h http.Header, token string) {
	if token == "" {
		return
	}
	h.Set(headerAuthorization, "Bearer "+token)
}

// BearerHeaderLine renders the header as a raw CRLF-terminated line, or ""
// when there is no token.
func BearerHeaderLine(token string) string {
	if token == "" {
		return ""
	}
	return headerAuthorization + ": Bearer " + token + "\r\n"
}
