// Package model holds client-side copies of the records the expense server owns.
package model

import (
	"bytes"
	"encoding/json"
)

// User is a member of the expense service as the server reports it.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts both the "_id" and "id" spellings of the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.AltID
	}
	return nil
}

// UserRef is a user field that the server sends either populated or as a bare id.
type UserRef struct {
	User
}

// UnmarshalJSON decodes a populated user object, a bare id string, or null.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = UserRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{User: User{ID: id}}
		return nil
	default:
		return json.Unmarshal(data, &r.User)
	}
}

// DisplayName returns the best label available for the referenced user.
func (r UserRef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
