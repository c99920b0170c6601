package cmsauth

import (
	"encoding/json"
	"fmt"
)

// Provider is the only credential provider the bridge issues for.
const Provider = "github"

const (
	announce      = "authorizing:" + Provider
	successPrefix = "authorization:" + Provider + ":success:"
)

// Message is the credential handed to the editor window.
type Message struct {
	Token    string `json:"token"`
	Provider string `json:"provider"`
}

// Encode produces the wire string posted to the opener window.
func (m Message) Encode() (string, error) {
	if m.Token == "" {
		return "", fmt.Errorf("message without token")
	}
	if m.Provider == "" {
		m.Provider = Provider
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return successPrefix + string(b), nil
}
