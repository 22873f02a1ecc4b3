package platform

import "strings"

// APIPrefix is the versioned API path segment appended to every base URL.
const APIPrefix = "/api/v1"

// Deployment constants. The preview environment embeds the served port in
// the leading subdomain label; the backend listens on BackendPort there and
// in generic production.
const (
	previewDomainSuffix = ".manus.computer"
	backendPortLabel    = "8080-"
	backendPort         = "8080"
)

// frontendPortLabels are the dev-server port labels rewritten to the
// backend's label in preview origins.
var frontendPortLabels = []string{"5173-", "5174-"}

// ResolveBaseURL derives the backend base URL from the current host, in
// priority order: loopback hosts use a same-origin relative prefix (local
// reverse proxy), preview hosts rewrite the port label embedded in the
// subdomain, and anything else uses the override when present or the origin
// with its port swapped for the backend's default. Always returns a usable
// URL string.
func ResolveBaseURL(host Host, override string) string {
	if host.IsLoopback() {
		return APIPrefix
	}

	origin := host.Origin()

	if strings.HasSuffix(host.Hostname, previewDomainSuffix) {
		apiHost := origin
		for _, label := range frontendPortLabels {
			apiHost = strings.Replace(apiHost, label, backendPortLabel, 1)
		}
		return apiHost + APIPrefix
	}

	if override != "" {
		return override + APIPrefix
	}

	base := host
	if base.Port != "" {
		base.Port = backendPort
	}
	return base.Origin() + APIPrefix
}
