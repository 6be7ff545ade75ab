package gateway

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Counts(t *testing.T) {
	table := DefaultTable()
	assert.Len(t, table.Candidates(OpListContacts), 4)
	assert.Len(t, table.Candidates(OpListMessages), 4)
	assert.Len(t, table.Candidates(OpSendMessage), 4)
	assert.Len(t, table.Candidates(OpConnectionStatus), 3)
	assert.Len(t, table.Candidates(OpDisconnect), 3)
}

func TestDefaultTable_ProbeOrder(t *testing.T) {
	for _, op := range Operations {
		list := DefaultTable().Candidates(op)
		for i := 1; i < len(list); i++ {
			assert.LessOrEqual(t, list[i-1].Priority, list[i].Priority, "%s row %d", op, i)
		}
	}

	send := DefaultTable().Candidates(OpSendMessage)
	require.Len(t, send, 4)
	assert.Equal(t, send[0].Path, send[1].Path, "the legacy body shape retries the same path")
	assert.Equal(t, BodySendText, send[0].Body)
	assert.Equal(t, BodySendTextLegacy, send[1].Body)
}

func TestTable_CandidatesReturnsCopy(t *testing.T) {
	table := DefaultTable()
	list := table.Candidates(OpListContacts)
	list[0].Path = "/mutated"
	assert.NotEqual(t, "/mutated", table.Candidates(OpListContacts)[0].Path)
}

func TestCandidate_BuildPath(t *testing.T) {
	p := Params{Instance: "my shop", Number: "5511999990000", JID: "5511999990000@s.whatsapp.net", Limit: 25, Sort: SortAsc}

	c := Candidate{Path: "/chat/messages/{instance}?number={number}&limit={limit}&sort={sort}"}
	assert.Equal(t, "/chat/messages/my%20shop?number=5511999990000&limit=25&sort=asc", c.BuildPath(p))

	c = Candidate{Path: "/chat/{jid}"}
	assert.Equal(t, "/chat/5511999990000@s.whatsapp.net", c.BuildPath(p))
}

func TestCandidate_BuildBody(t *testing.T) {
	p := Params{Number: "5511", JID: "5511@s.whatsapp.net", Limit: 10, Sort: SortDesc, Text: "hello"}

	assert.Nil(t, Candidate{Body: BodyNone}.BuildBody(p))
	assert.Equal(t, map[string]any{}, Candidate{Body: BodyEmpty}.BuildBody(p))
	assert.Equal(t, map[string]any{"number": "5511", "text": "hello"}, Candidate{Body: BodySendText}.BuildBody(p))

	legacy, ok := Candidate{Body: BodySendTextLegacy}.BuildBody(p).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hello"}, legacy["textMessage"])

	uaz, ok := Candidate{Body: BodyUazapiFindMessages}.BuildBody(p).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "-messageTimestamp", uaz["sort"])
	assert.Equal(t, "5511@s.whatsapp.net", uaz["chatid"])
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		row  Candidate
	}{
		{"unknown operation", Candidate{Operation: "purge", Path: "/x", Verb: http.MethodGet}},
		{"relative path", Candidate{Operation: OpListContacts, Path: "contacts", Verb: http.MethodGet}},
		{"bad verb", Candidate{Operation: OpListContacts, Path: "/contacts", Verb: "FETCH"}},
		{"unknown body", Candidate{Operation: OpListContacts, Path: "/contacts", Verb: http.MethodPost, Body: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.row)
			assert.Error(t, err)
		})
	}

	table, err := NewTable(Candidate{Operation: OpDisconnect, Path: "/bye", Verb: " post "})
	require.NoError(t, err)
	got := table.Candidates(OpDisconnect)
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].Verb)
	assert.Equal(t, BodyNone, got[0].Body)
}

func TestNewTable_StableWithinPriority(t *testing.T) {
	table, err := NewTable(
		Candidate{Operation: OpConnectionStatus, Path: "/b", Verb: "GET", Priority: 5},
		Candidate{Operation: OpConnectionStatus, Path: "/a", Verb: "GET", Priority: 1},
		Candidate{Operation: OpConnectionStatus, Path: "/c", Verb: "GET", Priority: 5},
	)
	require.NoError(t, err)
	var paths []string
	for _, c := range table.Candidates(OpConnectionStatus) {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"/a", "/b", "/c"}, paths)
}

func TestLoadTable_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.yaml")
	yml := `candidates:
  - operation: connection_status
    path: /api/{instance}/health
    verb: get
    priority: 5
  - operation: list_contacts
    path: /v2/contacts
    verb: GET
    priority: 50
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)

	status := table.Candidates(OpConnectionStatus)
	require.Len(t, status, 4)
	assert.Equal(t, "/api/{instance}/health", status[0].Path)
	assert.Equal(t, http.MethodGet, status[0].Verb)

	contacts := table.Candidates(OpListContacts)
	require.Len(t, contacts, 5)
	assert.Equal(t, "/v2/contacts", contacts[4].Path)
}

func TestLoadTable_Errors(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("candidates:\n  - operation: nope\n    path: /x\n    verb: GET\n"), 0o600))
	_, err = LoadTable(path)
	assert.ErrorContains(t, err, "unknown operation")
}
