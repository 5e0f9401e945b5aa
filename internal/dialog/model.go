package dialog

type State string

const (
	StateIdle State = "idle"

	// search text is expected next
	StateSearch State = "search"
	// quantity for payload["item_id"] is expected next
	StateAwaitQty State = "await_qty"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// GetInt64 reads a number stored in the payload. Values that went through
// JSON come back as float64.
func GetInt64(p Payload, key string) (int64, bool) {
	switch v := p[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
