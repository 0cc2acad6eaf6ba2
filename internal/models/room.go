package models

import "time"

// Room is a bookable space with a fixed daily window and block length.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OpenTime     string    `json:"open_time"`  // "08:00"
	CloseTime    string    `json:"close_time"` // "18:00"
	BlockMinutes int       `json:"block_minutes"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoomInput carries the fields of a new room.
type RoomInput struct {
	Name         string `json:"name"`
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
	BlockMinutes int    `json:"block_minutes"`
	Active       *bool  `json:"active,omitempty"`
}

// RoomPatch has one optional field per mutable attribute.
type RoomPatch struct {
	Name         *string `json:"name,omitempty"`
	OpenTime     *string `json:"open_time,omitempty"`
	CloseTime    *string `json:"close_time,omitempty"`
	BlockMinutes *int    `json:"block_minutes,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// TouchesWindow reports whether the patch changes any validator input.
func (p RoomPatch) TouchesWindow() bool {
	return p.OpenTime != nil || p.CloseTime != nil || p.BlockMinutes != nil
}

// Empty reports whether the patch changes nothing.
func (p RoomPatch) Empty() bool {
	return p.Name == nil && p.Active == nil && !p.TouchesWindow()
}
