package directory

import (
	"bytes"
	"encoding/json"
)

// User is an entry of the backend's user directory.
type User struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	Location      string `json:"location,omitempty"`

	// ID is the backend's match id. It is only present on entries returned
	// by the invite listings.
	ID MatchID `json:"id,omitempty"`
}

// DisplayName falls back to a generic label for users without a username.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return "User"
}

// MatchID is a match id sent either as a JSON string or as a JSON number.
type MatchID string

func (m *MatchID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MatchID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = MatchID(n.String())
	return nil
}
