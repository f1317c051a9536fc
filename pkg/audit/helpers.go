package audit

import (
	"strings"
)

// extractSubject maps a request path to the audit subject it touches.
// Paths look like /api/v1/assets/{logicalKey}/... and
// /api/v1/inspections/{id}/... . Returns empty strings for paths without
// an addressable subject, such as collection-level creates.
func extractSubject(path string) (subjectType, subjectKey string) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 4 || parts[0] != "api" {
		return "", ""
	}

	switch parts[2] {
	case "assets":
		return SubjectAsset, parts[3]
	case "inspections":
		// /api/v1/inspections/items/{itemID} addresses no inspection.
		if parts[3] == "items" {
			return "", ""
		}
		return SubjectInspection, parts[3]
	}
	return "", ""
}

// extractActionVerb returns a human-readable action name from the HTTP
// method and path.
func extractActionVerb(method, path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	// Sub-resource actions carry their own verbs.
	for _, p := range parts {
		switch p {
		case "start", "cancel":
			return p
		case "approvals":
			if method == "DELETE" {
				return "approval.revoke"
			}
			return "approval.sign"
		case "items":
			if method == "DELETE" {
				return "item.remove"
			}
			return "item.add"
		case "history", "changes":
			return p
		}
	}

	switch method {
	case "POST":
		return "create"
	case "PUT":
		return "update"
	case "PATCH":
		return "patch"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// isAuditedEndpoint returns true if the request should be audited.
// Mutating methods (POST, PUT, PATCH, DELETE) are audited; pure browsing
// (GET) is not.
func isAuditedEndpoint(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}

	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// isHealthEndpoint returns true for health-check paths.
func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz":
		return true
	}
	return false
}
