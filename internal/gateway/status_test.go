package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   State
		wantQR string
	}{
		{"evolution open", `{"instance":{"instanceName":"shop","state":"open"}}`, StateConnected, ""},
		{"evolution close", `{"instance":{"state":"close"}}`, StateDisconnected, ""},
		{"evolution connecting", `{"instance":{"state":"connecting"}}`, StateConnecting, ""},
		{"uazapi nested status", `{"instance":{"status":"connected"},"status":{"connected":true}}`, StateConnected, ""},
		{"status object bool", `{"status":{"connected":false,"loggedIn":false}}`, StateDisconnected, ""},
		{"root state", `{"state":"CONNECTED"}`, StateConnected, ""},
		{"root connected bool", `{"connected":true}`, StateConnected, ""},
		{"root status token", `{"status":"not-connected"}`, StateDisconnected, ""},
		{"root status token underscores", `{"status":"SCAN_QR_CODE"}`, StateConnecting, ""},
		{"error token", `{"state":"conflict"}`, StateError, ""},
		{"qr without state", `{"qrcode":{"base64":"data:image/png;base64,AAA"}}`, StateConnecting, "data:image/png;base64,AAA"},
		{"qr with closed state", `{"instance":{"state":"close"},"base64":"QQQ"}`, StateConnecting, "QQQ"},
		{"connected drops qr", `{"instance":{"state":"open"},"qrcode":"stale"}`, StateConnected, ""},
		{"no signal", `{"instance":{"name":"shop"}}`, StateUnknown, ""},
		{"unknown token", `{"state":"hibernating"}`, StateUnknown, ""},
		{"ok status is not a state", `{"status":"success"}`, StateUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(decode(t, tt.body))
			assert.Equal(t, tt.want, got.State)
			assert.Equal(t, tt.wantQR, got.QRCode)
			assert.NotEmpty(t, got.Detail)
		})
	}
}

func TestResolveStatus_NonObject(t *testing.T) {
	assert.Equal(t, StateUnknown, ResolveStatus([]any{}).State)
	assert.Equal(t, StateUnknown, ResolveStatus("open").State)
	assert.Equal(t, StateUnknown, ResolveStatus(nil).State)
}

func TestResolveStatus_NoSignalIsNotDisconnected(t *testing.T) {
	got := ResolveStatus(decode(t, `{"instance":{}}`))
	assert.NotEqual(t, StateDisconnected, got.State)
	assert.Equal(t, StateUnknown, got.State)
}

func TestResolveStatus_IsStateless(t *testing.T) {
	body := decode(t, `{"instance":{"state":"open"}}`)
	first := ResolveStatus(body)
	second := ResolveStatus(body)
	assert.Equal(t, first, second)

	assert.Equal(t, StateUnknown, ResolveStatus(decode(t, `{"instance":{}}`)).State)
}
