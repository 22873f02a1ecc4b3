package client

import (
	"encoding/json"

	"github.com/c360/consoleclient/errors"
)

// Request is the outbound request envelope.
type Request struct {
	Method  string
	Path    string
	Params  map[string]string
	Body    map[string]any
	Headers map[string]string
}

// envelope is the server's response contract: {code, message, data}.
// Code is a pointer so a plain JSON body without a code field can be told
// apart from an envelope with code 0.
type envelope struct {
	Code    *errors.Code    `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// parseEnvelope reports whether the body matches the envelope shape and
// returns the parsed envelope when it does.
func parseEnvelope(body []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, false
	}
	return env, env.Code != nil
}

// checkAdmission enforces the admission guard: a request carrying an app_id
// field with an empty value in params or body reflects a caller that is not
// ready yet and must never reach the network. The returned error is nil
// when the request may proceed, otherwise it names the offending location.
func checkAdmission(req Request) error {
	if v, ok := req.Params["app_id"]; ok && v == "" {
		return errors.Wrap(errors.ErrEmptyAppID, "client", "Send", "params validation")
	}
	if req.Body != nil {
		if v, ok := req.Body["app_id"]; ok && isEmptyValue(v) {
			return errors.Wrap(errors.ErrEmptyAppID, "client", "Send", "body validation")
		}
	}
	return nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
