package apod

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Classifier turns a completed HTTP exchange into an ErrorInfo
type Classifier interface {
	Classify(statusCode int, contentType string, body []byte) ErrorInfo
}

// ResponseClassifier is the default Classifier. It understands the two error
// shapes the APOD stack produces: the service's own
// {"code", "msg", "service_version"} object and the API gateway's
// {"error": {"code", "message"}} object.
type ResponseClassifier struct{}

// NewResponseClassifier creates the default classifier
func NewResponseClassifier() *ResponseClassifier {
	return &ResponseClassifier{}
}

// gatewayCodes maps api.data.gov error codes to kinds
var gatewayCodes = map[string]ErrorKind{
	"API_KEY_MISSING": KindAPIKeyMissing,
	"API_KEY_INVALID": KindAPIKeyInvalid,
	"OVER_RATE_LIMIT": KindOverRateLimit,
}

// gatewayMessages are used when the gateway error carries no message
var gatewayMessages = map[ErrorKind]string{
	KindAPIKeyMissing: msgAPIKeyMissing,
	KindAPIKeyInvalid: msgAPIKeyInvalid,
	KindOverRateLimit: msgOverRateLimit,
	KindUnknown:       msgUnknown,
}

// Classify never fails: shapes it does not recognise become KindUnknown
func (c *ResponseClassifier) Classify(statusCode int, contentType string, body []byte) ErrorInfo {
	if statusCode >= 200 && statusCode < 300 {
		return noError
	}

	// The service answers timeouts with an HTML error page instead of JSON
	if isHTML(contentType) {
		return ErrorInfo{Kind: KindTimeout, Message: msgTimeout}
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &object); err != nil || object == nil {
		return unknownError("")
	}

	if _, ok := object["service_version"]; ok {
		return classifyServiceError(object)
	}

	if raw, ok := object["error"]; ok {
		return classifyGatewayError(raw)
	}

	return unknownError("")
}

func classifyServiceError(object map[string]json.RawMessage) ErrorInfo {
	message := stringField(object["msg"])

	code, ok := numberField(object["code"])
	if !ok {
		return unknownError(message)
	}

	switch code {
	case 400:
		return ErrorInfo{Kind: KindBadRequest, Message: message}
	case 500:
		return ErrorInfo{Kind: KindInternalServiceError, Message: message}
	default:
		return unknownError(message)
	}
}

func classifyGatewayError(raw json.RawMessage) ErrorInfo {
	var gatewayErr struct {
		Code    json.RawMessage `json:"code"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &gatewayErr); err != nil {
		return unknownError("")
	}

	kind, ok := gatewayCodes[stringField(gatewayErr.Code)]
	if !ok {
		kind = KindUnknown
	}

	message := stringField(gatewayErr.Message)
	if message == "" {
		message = gatewayMessages[kind]
	}

	return ErrorInfo{Kind: kind, Message: message}
}

func unknownError(message string) ErrorInfo {
	if message == "" {
		message = msgUnknown
	}
	return ErrorInfo{Kind: KindUnknown, Message: message}
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// stringField reads a JSON string, or the literal text of any other scalar
func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// numberField reads a JSON number or a string holding an integer
func numberField(raw json.RawMessage) (int, bool) {
	text := stringField(raw)
	if text == "" {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}
