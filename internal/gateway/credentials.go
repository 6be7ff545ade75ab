package gateway

import "strings"

// Credentials identify one tenant's provider deployment.
type Credentials struct {
	BaseURL    string
	Token      string
	InstanceID string
}

// Headers returns the token under every auth convention the provider family
// accepts. Deployments ignore the headers they do not know.
func (c Credentials) Headers() map[string]string {
	token := strings.TrimSpace(c.Token)
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
		"apikey":        token,
		"token":         token,
	}
}

func (c Credentials) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}
