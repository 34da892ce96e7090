package core

import (
	"bytes"
	"encoding/json"
)

// persistedRecord is the on-disk form of MemoryRecord. EmbeddingPresent is a pointer
// so that files written before the flag existed load as fully embedded.
type persistedRecord struct {
	ID               int64   `json:"id,omitempty"`
	Text             string  `json:"text"`
	Timestamp        string  `json:"timestamp"`
	Role             string  `json:"role"`
	ToolName         *string `json:"tool_name"`
	ToolCallID       *string `json:"tool_call_id"`
	EmbeddingPresent *bool   `json:"embedding_present,omitempty"`
}

// encodeMetadata renders records as an indented JSON array with raw UTF-8.
func encodeMetadata(records []*MemoryRecord) ([]byte, error) {
	out := make([]persistedRecord, len(records))
	for i, r := range records {
		present := r.EmbeddingPresent
		out[i] = persistedRecord{
			ID:               r.ID,
			Text:             r.Text,
			Timestamp:        r.Timestamp,
			Role:             r.Role,
			ToolName:         r.ToolName,
			ToolCallID:       r.ToolCallID,
			EmbeddingPresent: &present,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeMetadata parses a metadata artifact.
func decodeMetadata(data []byte) ([]*MemoryRecord, error) {
	var in []persistedRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	records := make([]*MemoryRecord, len(in))
	for i, p := range in {
		present := true
		if p.EmbeddingPresent != nil {
			present = *p.EmbeddingPresent
		}
		records[i] = &MemoryRecord{
			ID:               p.ID,
			Text:             p.Text,
			Timestamp:        p.Timestamp,
			Role:             p.Role,
			ToolName:         p.ToolName,
			ToolCallID:       p.ToolCallID,
			EmbeddingPresent: present,
		}
	}
	return records, nil
}
