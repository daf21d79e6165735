package apod

import (
	"encoding/json"
)

// decodeSingle decodes a single-entry body and wraps it in a one-element slice
func decodeSingle(body []byte) ([]Entry, error) {
	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, err
	}
	return []Entry{entry}, nil
}

// decodeMany decodes an array body, keeping the service's order
func decodeMany(body []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
