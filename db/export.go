package db

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/workspace"
	"github.com/f1r3fly-io/rholang-analyzer/models"
)

// Export writes the workspace's current symbol surface as one snapshot
// and returns its id. The in-memory workspace is the source of truth;
// the snapshot is a one-way dump.
func Export(conn *gorm.DB, w *workspace.Workspace, root string) (string, error) {
	snap := models.Snapshot{
		ID:        uuid.NewString(),
		Root:      root,
		FileCount: w.Docs.Len(),
	}

	for _, uri := range w.Docs.URIs() {
		entry, ok := w.Docs.Get(uri)
		if !ok {
			continue
		}
		for _, sym := range entry.Table.AllSymbols() {
			snap.Symbols = append(snap.Symbols, models.SymbolRow{
				SnapshotID:     snap.ID,
				Name:           sym.Name,
				Kind:           string(sym.Kind),
				URI:            sym.DeclarationURI,
				Row:            sym.Declaration.Start.Row,
				Column:         sym.Declaration.Start.Column,
				Byte:           sym.Declaration.Start.Byte,
				ReferenceCount: sym.ReferenceCount,
				Documentation:  sym.Documentation,
			})
		}
		for _, c := range entry.Table.Contracts() {
			sig, err := signatureJSON(c.Pattern)
			if err != nil {
				return "", fmt.Errorf("encoding signature for %s: %w", c.Name, err)
			}
			snap.Contracts = append(snap.Contracts, models.ContractRow{
				SnapshotID: snap.ID,
				Name:       c.Name,
				Arity:      c.Pattern.Arity(),
				URI:        c.DeclarationURI,
				Signature:  sig,
			})
		}
	}

	if err := conn.Create(&snap).Error; err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return snap.ID, nil
}

func signatureJSON(pat *symbols.ContractPattern) (datatypes.JSON, error) {
	raw, err := json.Marshal(pat.FormalKinds())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
