// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// FILE RECORD TYPE
// =============================================================================

// FileRecord is one uploaded document as listed by the backend. The listing
// may carry either a bare file name or an object.
type FileRecord struct {
	// Name holds the bare-string form.
	Name string `json:"-"`

	OriginalFilename string `json:"original_filename,omitempty"`
	Owner            string `json:"owner,omitempty"`
	StoredPath       string `json:"stored_path,omitempty"`
}

// DisplayName returns original_filename when present, otherwise the bare name.
func (f FileRecord) DisplayName() string {
	if f.OriginalFilename != "" {
		return f.OriginalFilename
	}
	return f.Name
}

// UnmarshalJSON accepts a JSON string or an object.
func (f *FileRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*f = FileRecord{Name: name}
		return nil
	}

	type plain FileRecord
	var rec plain
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("file record: %w", err)
	}
	*f = FileRecord(rec)
	return nil
}

// MarshalJSON writes the bare string form back as a string.
func (f FileRecord) MarshalJSON() ([]byte, error) {
	if f.OriginalFilename == "" && f.Owner == "" && f.StoredPath == "" {
		return json.Marshal(f.Name)
	}
	type plain FileRecord
	return json.Marshal(plain(f))
}

// DisplayNames maps records to their display names.
func DisplayNames(files []FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.DisplayName()
	}
	return out
}
