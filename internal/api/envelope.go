package api

import (
	"encoding/json"
	"fmt"
)

// unwrapEnvelope strips the scoring service's optional response
// envelope. Responses may arrive either as {"data": T} or as a bare
// body; the caller always sees T.
func unwrapEnvelope(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if data, ok := envelope["data"]; ok {
		return data
	}

	return body
}

// errorMessage extracts the server-provided {"message": ...} from an
// error body, or synthesizes a generic status-coded message.
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}

	return fmt.Sprintf("HTTP %d", status)
}
