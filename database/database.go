// Package database provides an interface for the room store.
package database

import (
	"errors"
)

var (
	// ErrRoomFull is returned when the room already holds its capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrMemberAlreadyExists is returned when the connection is already a member of the room.
	ErrMemberAlreadyExists = errors.New("member already exists")

	// ErrMemberInOtherRoom is returned when the connection is a member of another room.
	ErrMemberInOtherRoom = errors.New("member belongs to another room")

	// ErrRoomNotFound is returned when the room is not found.
	ErrRoomNotFound = errors.New("room not found")
)

// Database is an interface for room store operations.
type Database interface {
	// AddMember adds the connection to the room if the room holds fewer than
	// capacity members and returns the room after the insert.
	AddMember(roomID, connectionID string, capacity int) (*RoomInfo, error)

	// RemoveMember removes the connection from every room containing it and
	// returns those rooms after the removal. Rooms left without members no
	// longer exist in the store.
	RemoveMember(connectionID string) ([]*RoomInfo, error)

	FindRoomInfoByID(roomID string) (*RoomInfo, error)
	FindRoomInfosByMember(connectionID string) ([]*RoomInfo, error)
	IsMember(roomID, connectionID string) (bool, error)
	CountRooms() (int, error)
}
