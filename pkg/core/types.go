package core

// Message is one conversational message submitted for memorization.
//
// Example:
//
//	msg := core.Message{
//	    Role:      "user",
//	    Content:   "Turn on the living room light at 7:30 every morning",
//	    Timestamp: "2025-03-01T07:00:00+08:00",
//	}
type Message struct {
	// Role is the speaker role (e.g. "user", "assistant", "tool").
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is an optional ISO-8601 timestamp. The capture time is used when empty.
	Timestamp string `json:"timestamp,omitempty"`

	// ToolName is the tool that produced the message (optional).
	ToolName string `json:"tool_name,omitempty"`

	// ToolCallID is the tool call identifier (optional).
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// MemoryRecord is a stored memory.
//
// The JSON form is the persisted metadata format; field names are fixed.
type MemoryRecord struct {
	// ID is the unique identifier assigned at capture time. Zero for records
	// loaded from artifacts that predate identifiers.
	ID int64 `json:"id,omitempty"`

	// Text is the rendered memory content, the input to embedding and scoring.
	Text string `json:"text"`

	// Timestamp is the message timestamp, or the capture time.
	Timestamp string `json:"timestamp"`

	// Role is the role of the source message.
	Role string `json:"role"`

	// ToolName is nil when the source message carried none.
	ToolName *string `json:"tool_name"`

	// ToolCallID is nil when the source message carried none.
	ToolCallID *string `json:"tool_call_id"`

	// EmbeddingPresent reports whether the record occupies a slot of the index.
	EmbeddingPresent bool `json:"embedding_present"`
}

// clone returns a deep copy safe to hand to callers.
func (r *MemoryRecord) clone() *MemoryRecord {
	out := *r
	if r.ToolName != nil {
		v := *r.ToolName
		out.ToolName = &v
	}
	if r.ToolCallID != nil {
		v := *r.ToolCallID
		out.ToolCallID = &v
	}
	return &out
}

// QueryResult is one memory returned by Query.
type QueryResult struct {
	// Record is a copy of the stored memory.
	Record *MemoryRecord `json:"record"`

	// Similarity is 1/(1+d) for the squared L2 distance d. Zero for recency results.
	Similarity float64 `json:"similarity"`

	// FromRecency is true when the result came from the recency fallback.
	FromRecency bool `json:"from_recency"`
}

// RoleStats summarizes the store of one role.
type RoleStats struct {
	// Records is the number of stored memories.
	Records int `json:"records"`

	// Embedded is the number of memories present in the index.
	Embedded int `json:"embedded"`

	// Indexed is the number of vectors in the index; always equal to Embedded.
	Indexed int `json:"indexed"`
}

// Degraded returns the number of memories kept without an embedding.
func (s RoleStats) Degraded() int {
	return s.Records - s.Embedded
}
