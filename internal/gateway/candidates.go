package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Params are the logical parameters of one operation call. Candidates map
// them onto their own path and body shape.
type Params struct {
	Instance string
	Number   string
	JID      string
	Limit    int
	Sort     SortOrder
	Text     string
}

// BodyShape names a request body builder so candidates can be declared as
// plain data.
type BodyShape string

const (
	BodyNone                  BodyShape = "none"
	BodyEmpty                 BodyShape = "empty"
	BodyEvolutionFindContacts BodyShape = "evolution_find_contacts"
	BodyEvolutionFindMessages BodyShape = "evolution_find_messages"
	BodyUazapiFindChats       BodyShape = "uazapi_find_chats"
	BodyUazapiFindMessages    BodyShape = "uazapi_find_messages"
	BodySendText              BodyShape = "send_text"
	BodySendTextLegacy        BodyShape = "send_text_legacy"
	BodySendGeneric           BodyShape = "send_generic"
)

type bodyBuilder func(Params) any

var bodyBuilders = map[BodyShape]bodyBuilder{
	BodyNone:  func(Params) any { return nil },
	BodyEmpty: func(Params) any { return map[string]any{} },
	BodyEvolutionFindContacts: func(Params) any {
		return map[string]any{"where": map[string]any{}}
	},
	BodyEvolutionFindMessages: func(p Params) any {
		return map[string]any{
			"where":  map[string]any{"key": map[string]any{"remoteJid": p.JID}},
			"page":   1,
			"offset": p.Limit,
			"limit":  p.Limit,
			"sort":   string(p.Sort),
		}
	},
	BodyUazapiFindChats: func(Params) any {
		return map[string]any{"sort": "-wa_lastMsgTimestamp"}
	},
	BodyUazapiFindMessages: func(p Params) any {
		order := "-messageTimestamp"
		if p.Sort == SortAsc {
			order = "messageTimestamp"
		}
		return map[string]any{"chatid": p.JID, "limit": p.Limit, "sort": order}
	},
	BodySendText: func(p Params) any {
		return map[string]any{"number": p.Number, "text": p.Text}
	},
	BodySendTextLegacy: func(p Params) any {
		return map[string]any{
			"number":      p.Number,
			"textMessage": map[string]any{"text": p.Text},
			"options":     map[string]any{"delay": 0, "presence": "composing"},
		}
	},
	BodySendGeneric: func(p Params) any {
		return map[string]any{"to": p.Number, "body": p.Text, "type": "text"}
	},
}

// Candidate is one (path, verb, body shape) combination that may serve an
// operation on some provider deployment.
type Candidate struct {
	Operation Operation `yaml:"operation"`
	Path      string    `yaml:"path"`
	Verb      string    `yaml:"verb"`
	Body      BodyShape `yaml:"body"`
	Priority  int       `yaml:"priority"`
}

func (c Candidate) String() string {
	return c.Verb + " " + c.Path
}

// BuildPath fills the path template placeholders from p.
func (c Candidate) BuildPath(p Params) string {
	r := strings.NewReplacer(
		"{instance}", url.PathEscape(p.Instance),
		"{number}", url.PathEscape(p.Number),
		"{jid}", url.PathEscape(p.JID),
		"{limit}", strconv.Itoa(p.Limit),
		"{sort}", string(p.Sort),
	)
	return r.Replace(c.Path)
}

// BuildBody returns the request body for p, or nil when the candidate sends
// none.
func (c Candidate) BuildBody(p Params) any {
	b, ok := bodyBuilders[c.Body]
	if !ok {
		return nil
	}
	return b(p)
}

func (c Candidate) validate() error {
	switch c.Operation {
	case OpListContacts, OpListMessages, OpSendMessage, OpConnectionStatus, OpDisconnect:
	default:
		return fmt.Errorf("unknown operation %q", c.Operation)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path %q must start with /", c.Path)
	}
	switch c.Verb {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported verb %q", c.Verb)
	}
	if c.Body == "" {
		return nil
	}
	if _, ok := bodyBuilders[c.Body]; !ok {
		return fmt.Errorf("unknown body shape %q", c.Body)
	}
	return nil
}

// Table holds the ordered candidates per operation. It is never mutated
// after construction and is safe to share.
type Table struct {
	byOp map[Operation][]Candidate
}

// NewTable validates the rows and orders them by priority. Rows with equal
// priority keep their declaration order.
func NewTable(rows ...Candidate) (Table, error) {
	t := Table{byOp: make(map[Operation][]Candidate)}
	for i, row := range rows {
		row.Verb = strings.ToUpper(strings.TrimSpace(row.Verb))
		if row.Body == "" {
			row.Body = BodyNone
		}
		if err := row.validate(); err != nil {
			return Table{}, fmt.Errorf("candidate %d: %w", i, err)
		}
		t.byOp[row.Operation] = append(t.byOp[row.Operation], row)
	}
	for _, list := range t.byOp {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	}
	return t, nil
}

// Candidates returns a copy of the candidates for op in probe order.
func (t Table) Candidates(op Operation) []Candidate {
	list := t.byOp[op]
	out := make([]Candidate, len(list))
	copy(out, list)
	return out
}

// With returns a new table holding t's rows plus extra.
func (t Table) With(extra ...Candidate) (Table, error) {
	var rows []Candidate
	for _, op := range Operations {
		rows = append(rows, t.byOp[op]...)
	}
	return NewTable(append(rows, extra...)...)
}

var defaultRows = []Candidate{
	{OpListContacts, "/chat/findChats/{instance}", http.MethodPost, BodyEmpty, 10},
	{OpListContacts, "/chat/findContacts/{instance}", http.MethodPost, BodyEvolutionFindContacts, 20},
	{OpListContacts, "/chat/find", http.MethodPost, BodyUazapiFindChats, 30},
	{OpListContacts, "/contacts", http.MethodGet, BodyNone, 40},

	{OpListMessages, "/chat/findMessages/{instance}", http.MethodPost, BodyEvolutionFindMessages, 10},
	{OpListMessages, "/message/find", http.MethodPost, BodyUazapiFindMessages, 20},
	{OpListMessages, "/chat/messages/{instance}?number={number}&limit={limit}&sort={sort}", http.MethodGet, BodyNone, 30},
	{OpListMessages, "/messages?phone={number}&limit={limit}&sort={sort}", http.MethodGet, BodyNone, 40},

	{OpSendMessage, "/message/sendText/{instance}", http.MethodPost, BodySendText, 10},
	{OpSendMessage, "/message/sendText/{instance}", http.MethodPost, BodySendTextLegacy, 20},
	{OpSendMessage, "/send/text", http.MethodPost, BodySendText, 30},
	{OpSendMessage, "/messages/send", http.MethodPost, BodySendGeneric, 40},

	{OpConnectionStatus, "/instance/connectionState/{instance}", http.MethodGet, BodyNone, 10},
	{OpConnectionStatus, "/instance/status", http.MethodGet, BodyNone, 20},
	{OpConnectionStatus, "/status", http.MethodGet, BodyNone, 30},

	{OpDisconnect, "/instance/logout/{instance}", http.MethodDelete, BodyNone, 10},
	{OpDisconnect, "/instance/disconnect", http.MethodPost, BodyEmpty, 20},
	{OpDisconnect, "/logout", http.MethodPost, BodyEmpty, 30},
}

// DefaultTable returns the built-in candidates, newest provider generation
// first and generic REST fallbacks last.
func DefaultTable() Table {
	t, err := NewTable(defaultRows...)
	if err != nil {
		panic(err)
	}
	return t
}

type tableFile struct {
	Candidates []Candidate `yaml:"candidates"`
}

// LoadTable reads extra candidates from a YAML file and merges them into the
// default table. Use a lower priority than 10 to probe a row before the
// built-in ones.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read candidates file: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("parse candidates file: %w", err)
	}
	return DefaultTable().With(f.Candidates...)
}
