package core

import (
	"strings"
	"time"
)

// renderMemoryText builds the stored memory text of a message.
//
//	Time: <timestamp>
//	Role: <role>
//	Tool: <tool name>        (only when present)
//	Call ID: <tool call id>  (only when present)
//	Content: <content>
func renderMemoryText(msg Message, timestamp string) string {
	var b strings.Builder
	b.WriteString("Time: ")
	b.WriteString(timestamp)
	b.WriteString("\nRole: ")
	b.WriteString(msg.Role)
	if msg.ToolName != "" {
		b.WriteString("\nTool: ")
		b.WriteString(msg.ToolName)
	}
	if msg.ToolCallID != "" {
		b.WriteString("\nCall ID: ")
		b.WriteString(msg.ToolCallID)
	}
	b.WriteString("\nContent: ")
	b.WriteString(msg.Content)
	return b.String()
}

// newRecord renders msg into a record stamped at now unless it carries a timestamp.
func newRecord(id int64, msg Message, now time.Time) *MemoryRecord {
	timestamp := msg.Timestamp
	if timestamp == "" {
		timestamp = now.Format(time.RFC3339Nano)
	}

	record := &MemoryRecord{
		ID:        id,
		Text:      renderMemoryText(msg, timestamp),
		Timestamp: timestamp,
		Role:      msg.Role,
	}
	if msg.ToolName != "" {
		name := msg.ToolName
		record.ToolName = &name
	}
	if msg.ToolCallID != "" {
		callID := msg.ToolCallID
		record.ToolCallID = &callID
	}
	return record
}
