// Package memory provides an in-memory database implementation.
package memory

import "github.com/hashicorp/go-memdb"

const (
	tblMembers = "members"
)

const (
	idxMemberID           = "id"
	idxMemberRoomID       = "room_id"
	idxMemberConnectionID = "connection_id"
)

// schema is the schema of the memory database. A room has no row of its own:
// it is the set of member rows sharing a RoomID.
var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblMembers: {
			Name: tblMembers,
			Indexes: map[string]*memdb.IndexSchema{
				idxMemberID: {
					Name:   idxMemberID,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "RoomID"},
							&memdb.StringFieldIndex{Field: "ConnectionID"},
						},
					},
				},
				idxMemberRoomID: {
					Name:    idxMemberRoomID,
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "RoomID"},
				},
				idxMemberConnectionID: {
					Name:    idxMemberConnectionID,
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "ConnectionID"},
				},
			},
		},
	},
}
