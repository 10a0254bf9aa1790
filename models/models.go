// Package models defines the GORM row shapes for the optional index
// snapshot export. The analyzer itself persists nothing; snapshots exist
// for external tooling that wants the workspace's symbol surface in SQL.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Snapshot is one export run over a workspace.
type Snapshot struct {
	ID        string    `gorm:"primaryKey;type:varchar(40)"`
	Root      string    `gorm:"type:text"`
	FileCount int       `gorm:"default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Symbols   []SymbolRow   `gorm:"foreignKey:SnapshotID"`
	Contracts []ContractRow `gorm:"foreignKey:SnapshotID"`
}

// SymbolRow is one declared symbol.
type SymbolRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SnapshotID string `gorm:"type:varchar(40);index"`

	Name string `gorm:"type:varchar(255);index"`
	Kind string `gorm:"type:varchar(30)"`
	URI  string `gorm:"type:text"`

	Row    uint32 `gorm:"column:decl_row"`
	Column uint32 `gorm:"column:decl_column"`
	Byte   uint32 `gorm:"column:decl_byte"`

	ReferenceCount int    `gorm:"default:0"`
	Documentation  string `gorm:"type:text"`
}

// ContractRow is one contract overload with its pattern signature.
type ContractRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SnapshotID string `gorm:"type:varchar(40);index"`

	Name  string `gorm:"type:varchar(255);index"`
	Arity int    `gorm:"default:0"`
	URI   string `gorm:"type:text"`

	// Signature holds the formal pattern kinds as JSON for tooling that
	// wants overload shapes without reparsing.
	Signature datatypes.JSON `gorm:"type:jsonb"`
}

func (Snapshot) TableName() string    { return "snapshots" }
func (SymbolRow) TableName() string   { return "symbol_rows" }
func (ContractRow) TableName() string { return "contract_rows" }
