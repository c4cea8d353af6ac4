package auth

import (
	"encoding/base64"
	"fmt"
)

// BasicAuthorization builds the Authorization header value for a client id/secret pair.
func BasicAuthorization(clientID, clientSecret string) string {
	raw := fmt.Sprintf("%s:%s", clientID, clientSecret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}
