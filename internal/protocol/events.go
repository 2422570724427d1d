package protocol

// ChatEvent is the decoded form of a CHAT event.
type ChatEvent struct {
	Tick     uint64
	From     string
	FromName string
	Channel  string
	Text     string
}

// ActionResultEvent is the decoded form of an ACTION_RESULT event. Ref is the
// id of the instant or task the result belongs to.
type ActionResultEvent struct {
	Tick    uint64
	Ref     string
	OK      bool
	Code    string
	Message string
}

func (e Event) Type() string { return e.str("type") }

func (e Event) AsChat() (ChatEvent, bool) {
	if e.Type() != EventChat {
		return ChatEvent{}, false
	}
	return ChatEvent{
		Tick:     e.tick(),
		From:     e.str("from"),
		FromName: e.str("from_name"),
		Channel:  e.str("channel"),
		Text:     e.str("text"),
	}, true
}

func (e Event) AsActionResult() (ActionResultEvent, bool) {
	if e.Type() != EventActionResult {
		return ActionResultEvent{}, false
	}
	ref := e.str("ref")
	if ref == "" {
		return ActionResultEvent{}, false
	}
	ok, _ := e["ok"].(bool)
	return ActionResultEvent{
		Tick:    e.tick(),
		Ref:     ref,
		OK:      ok,
		Code:    e.str("code"),
		Message: e.str("message"),
	}, true
}

func (e Event) str(k string) string {
	s, _ := e[k].(string)
	return s
}

func (e Event) tick() uint64 {
	switch v := e["t"].(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case uint64:
		return v
	case int:
		if v < 0 {
			return 0
		}
		return uint64(v)
	}
	return 0
}
