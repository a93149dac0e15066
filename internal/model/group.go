package model

import (
	"encoding/json"
	"time"
)

// GroupCategory classifies what a group is for.
type GroupCategory string

// Group categories offered when creating a group.
const (
	GroupCategoryTrip      GroupCategory = "trip"
	GroupCategoryHousehold GroupCategory = "household"
	GroupCategoryEvent     GroupCategory = "event"
	GroupCategoryOther     GroupCategory = "other"
)

// GroupCategories lists the group categories in display order.
func GroupCategories() []GroupCategory {
	return []GroupCategory{
		GroupCategoryTrip,
		GroupCategoryHousehold,
		GroupCategoryEvent,
		GroupCategoryOther,
	}
}

// Member wraps the user entry in a group's member list.
type Member struct {
	User UserRef `json:"userId"`
}

// Group is a named set of members sharing expenses.
type Group struct {
	CreatedAt   time.Time     `json:"createdAt"`
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    GroupCategory `json:"category"`
	Members     []Member      `json:"members"`
}

// UnmarshalJSON accepts both the "_id" and "id" spellings of the identifier.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Group(raw.plain)
	if g.ID == "" {
		g.ID = raw.AltID
	}
	return nil
}

// MemberIDs returns member user ids in member order.
func (g Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.User.ID)
	}
	return ids
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.User.ID == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with g.
func (g Group) Clone() Group {
	out := g
	if g.Members != nil {
		out.Members = append([]Member(nil), g.Members...)
	}
	return out
}
