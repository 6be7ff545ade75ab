package gateway

import (
	"fmt"
	"strings"
)

// statusKeys are the top-level keys that make a body a status payload.
var statusKeys = []string{"instance", "state", "connected", "status", "connection", "qrcode", "qr", "qrCode", "base64"}

var stateTokens = map[string]State{
	"open":          StateConnected,
	"connected":     StateConnected,
	"online":        StateConnected,
	"ready":         StateConnected,
	"authenticated": StateConnected,
	"inchat":        StateConnected,
	"loggedin":      StateConnected,
	"working":       StateConnected,

	"connecting": StateConnecting,
	"opening":    StateConnecting,
	"pairing":    StateConnecting,
	"qr":         StateConnecting,
	"qrcode":     StateConnecting,
	"scanqrcode": StateConnecting,
	"starting":   StateConnecting,
	"syncing":    StateConnecting,

	"close":        StateDisconnected,
	"closed":       StateDisconnected,
	"disconnected": StateDisconnected,
	"logout":       StateDisconnected,
	"loggedout":    StateDisconnected,
	"offline":      StateDisconnected,
	"notconnected": StateDisconnected,
	"stopped":      StateDisconnected,
	"notlogged":    StateDisconnected,

	"error":    StateError,
	"failed":   StateError,
	"failure":  StateError,
	"conflict": StateError,
	"unpaired": StateError,
	"banned":   StateError,
}

// stateFromToken matches a provider state string after dropping case,
// spaces, dashes and underscores.
func stateFromToken(s string) (State, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(lower(s))
	st, ok := stateTokens[key]
	return st, ok
}

// nestedStatusKeys hold status objects in the order they are checked.
var nestedStatusKeys = []string{"instance", "status", "connection", "session", "data"}

// ResolveStatus maps one status payload to a connection status. It holds no
// state: every call is authoritative and a later unknown result replaces an
// earlier connected one. The first matching signal decides:
//
//  1. a nested status object with a state string
//  2. a root state string
//  3. a root connected boolean
//  4. a root status string naming a known state
//
// Without any signal the state is unknown, not disconnected.
func ResolveStatus(body any) ConnectionStatus {
	st := ConnectionStatus{State: StateUnknown}
	m, ok := asMap(body)
	if !ok {
		st.Detail = "status payload is not an object"
		return st
	}

	matched := false
	for _, k := range nestedStatusKeys {
		obj, ok := asMap(m[k])
		if !ok {
			continue
		}
		for _, field := range []string{"state", "connectionState", "status"} {
			if s, ok := obj[field].(string); ok {
				if state, ok := stateFromToken(s); ok {
					st.State, st.Detail, matched = state, fmt.Sprintf("%s.%s=%s", k, field, s), true
					break
				}
			}
		}
		if matched {
			break
		}
		if b, ok := toBool(obj["connected"]); ok {
			st.State, st.Detail, matched = connectedState(b), fmt.Sprintf("%s.connected=%t", k, b), true
			break
		}
	}

	if !matched {
		if s, ok := m["state"].(string); ok {
			if state, ok := stateFromToken(s); ok {
				st.State, st.Detail, matched = state, "state="+s, true
			}
		}
	}
	if !matched {
		if b, ok := toBool(m["connected"]); ok {
			st.State, st.Detail, matched = connectedState(b), fmt.Sprintf("connected=%t", b), true
		}
	}
	if !matched {
		if s, ok := m["status"].(string); ok {
			if state, ok := stateFromToken(s); ok {
				st.State, st.Detail, matched = state, "status="+s, true
			}
		}
	}
	if !matched {
		st.Detail = "no connection signal"
	}

	qr := pickString(m, "qrcode.base64", "qrcode", "qrCode", "qr_code", "qr", "base64", "instance.qrcode", "instance.qrCode", "data.qrcode")
	if st.State == StateConnected {
		return st
	}
	if qr != "" {
		st.QRCode = qr
		if st.State == StateUnknown || st.State == StateDisconnected {
			st.State = StateConnecting
		}
	}
	return st
}

func connectedState(connected bool) State {
	if connected {
		return StateConnected
	}
	return StateDisconnected
}
