// Package memory provides an in-memory database implementation.
package memory

import (
	"fmt"
	"relay/database"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
)

// DB is a memory-backed room store.
type DB struct {
	db *memdb.MemDB
}

// New creates a new memory-backed room store.
func New() *DB {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}
	return &DB{
		db: db,
	}
}

// AddMember adds the connection to the room. The capacity check and the insert
// run in one write transaction.
func (d *DB) AddMember(roomID, connectionID string, capacity int) (*database.RoomInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	joined, err := findMembersByConnection(txn, connectionID)
	if err != nil {
		return nil, err
	}
	for _, m := range joined {
		if m.RoomID == roomID {
			return nil, fmt.Errorf("%s in %s: %w", connectionID, roomID, database.ErrMemberAlreadyExists)
		}
	}

	members, err := findMembersByRoom(txn, roomID)
	if err != nil {
		return nil, err
	}
	if len(members) >= capacity {
		return nil, fmt.Errorf("%s has %d members: %w", roomID, len(members), database.ErrRoomFull)
	}
	if len(joined) > 0 {
		return nil, fmt.Errorf("%s in %s: %w", connectionID, joined[0].RoomID, database.ErrMemberInOtherRoom)
	}

	info := &database.MemberInfo{
		RoomID:       roomID,
		ConnectionID: connectionID,
		JoinedAt:     time.Now(),
	}
	if err := txn.Insert(tblMembers, info); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	room := newRoomInfo(roomID, append(members, info))
	txn.Commit()
	return room, nil
}

// RemoveMember removes the connection from every room and returns the
// affected rooms with their remaining members.
func (d *DB) RemoveMember(connectionID string) ([]*database.RoomInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	joined, err := findMembersByConnection(txn, connectionID)
	if err != nil {
		return nil, err
	}

	rooms := make([]*database.RoomInfo, 0, len(joined))
	for _, m := range joined {
		if err := txn.Delete(tblMembers, m); err != nil {
			return nil, fmt.Errorf("delete member: %w", err)
		}
		remaining, err := findMembersByRoom(txn, m.RoomID)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, newRoomInfo(m.RoomID, remaining))
	}

	txn.Commit()
	return rooms, nil
}

// FindRoomInfoByID finds a room by its ID.
func (d *DB) FindRoomInfoByID(roomID string) (*database.RoomInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	members, err := findMembersByRoom(txn, roomID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%s: %w", roomID, database.ErrRoomNotFound)
	}
	return newRoomInfo(roomID, members), nil
}

// FindRoomInfosByMember finds every room the connection belongs to.
func (d *DB) FindRoomInfosByMember(connectionID string) ([]*database.RoomInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	joined, err := findMembersByConnection(txn, connectionID)
	if err != nil {
		return nil, err
	}
	rooms := make([]*database.RoomInfo, 0, len(joined))
	for _, m := range joined {
		members, err := findMembersByRoom(txn, m.RoomID)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, newRoomInfo(m.RoomID, members))
	}
	return rooms, nil
}

// IsMember reports whether the connection is a member of the room.
func (d *DB) IsMember(roomID, connectionID string) (bool, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblMembers, idxMemberID, roomID, connectionID)
	if err != nil {
		return false, fmt.Errorf("find member by id: %w", err)
	}
	return raw != nil, nil
}

// CountRooms returns the number of rooms that have at least one member.
func (d *DB) CountRooms() (int, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblMembers, idxMemberRoomID+"_prefix", "")
	if err != nil {
		return 0, fmt.Errorf("list members: %w", err)
	}
	rooms := map[string]struct{}{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		rooms[raw.(*database.MemberInfo).RoomID] = struct{}{}
	}
	return len(rooms), nil
}

// findMembersByRoom returns the member rows of the room.
func findMembersByRoom(txn *memdb.Txn, roomID string) ([]*database.MemberInfo, error) {
	iter, err := txn.Get(tblMembers, idxMemberRoomID, roomID)
	if err != nil {
		return nil, fmt.Errorf("find members by room id: %w", err)
	}
	var members []*database.MemberInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		members = append(members, raw.(*database.MemberInfo))
	}
	return members, nil
}

// findMembersByConnection returns the member rows of the connection.
func findMembersByConnection(txn *memdb.Txn, connectionID string) ([]*database.MemberInfo, error) {
	iter, err := txn.Get(tblMembers, idxMemberConnectionID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("find members by connection id: %w", err)
	}
	var members []*database.MemberInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		members = append(members, raw.(*database.MemberInfo))
	}
	return members, nil
}

// newRoomInfo copies the members into a RoomInfo ordered by join time.
func newRoomInfo(roomID string, members []*database.MemberInfo) *database.RoomInfo {
	copied := make([]*database.MemberInfo, 0, len(members))
	for _, m := range members {
		copied = append(copied, m.DeepCopy())
	}
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].JoinedAt.Before(copied[j].JoinedAt)
	})
	return &database.RoomInfo{
		ID:      roomID,
		Members: copied,
	}
}
