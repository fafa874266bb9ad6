// Package repository holds the table store backends and the JSON codec they share.
package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ticketing/internal/domain"
)

// Decode unmarshals a stored table document into dest. Empty data and a bare JSON null are an
// absent table and leave dest untouched. Undecodable data is reported as a StorageError wrapping domain.ErrCorruptTable.
func Decode(table domain.Table, data []byte, dest any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return domain.NewStorageError(table, "get", fmt.Errorf("%w: %v", domain.ErrCorruptTable, err))
	}
	return nil
}

// Encode marshals a table as two-space indented JSON, the on-disk format of the table files.
func Encode(table domain.Table, src any) ([]byte, error) {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return nil, domain.NewStorageError(table, "put", fmt.Errorf("encode: %w", err))
	}
	return data, nil
}
