package backend

import (
	"encoding/json"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// messageExpr picks the human-readable message out of an error body.
// The accounts API answers {"message": "..."}; some gateways answer {"error": "..."}
// or {"error": {"message": "..."}}.
const messageExpr = "message || error.message || error"

// extractMessage returns the server-provided message in raw, or "" when there is none.
func extractMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}

	result, err := jmespath.Search(messageExpr, data)
	if err != nil {
		return ""
	}

	msg, ok := result.(string)
	if !ok {
		return ""
	}
	return msg
}
