package types

import (
	"os"
	"strings"
)

// ContextUserKey is where the auth middleware stores the decoded identity.
const ContextUserKey = "user"

// AllowedOrigins is consulted by both the CORS layer and the WebSocket
// upgrader. The defaults cover the Vite dev and preview servers the client
// runs on; CLIENT_URL and ALLOWED_ORIGINS extend the list for deployments.
var AllowedOrigins = allowedOrigins()

func allowedOrigins() []string {
	origins := []string{
		"http://localhost:5173",
		"http://localhost:4173",
	}

	if clientURL := strings.TrimSpace(os.Getenv("CLIENT_URL")); clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
