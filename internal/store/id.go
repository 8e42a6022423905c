package store

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
)

// ID is an opaque record identifier. Legacy payloads used numeric ids, so the
// JSON decoder accepts both numbers and strings.
type ID string

// UnmarshalJSON accepts `"abc"` and `1700000000000`.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// NewID returns a random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}
