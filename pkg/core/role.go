package core

import "context"

// RoleMemory is a Client bound to one role id.
//
// Example:
//
//	mem := client.Role("living-room-speaker")
//	_ = mem.Save(ctx, messages)
//	results := mem.Query(ctx, "light preferences")
type RoleMemory struct {
	client *Client
	roleID string
}

// RoleID returns the bound role id.
func (m *RoleMemory) RoleID() string {
	return m.roleID
}

// Save memorizes messages. See Client.Save.
func (m *RoleMemory) Save(ctx context.Context, messages []Message) error {
	return m.client.Save(ctx, m.roleID, messages)
}

// Query recalls memories similar to text. See Client.Query.
func (m *RoleMemory) Query(ctx context.Context, text string, opts ...QueryOption) []*QueryResult {
	return m.client.Query(ctx, m.roleID, text, opts...)
}

// ClearAll removes every memory of the role. See Client.ClearAll.
func (m *RoleMemory) ClearAll(ctx context.Context) error {
	return m.client.ClearAll(ctx, m.roleID)
}

// Count returns the number of stored memories.
func (m *RoleMemory) Count(ctx context.Context) int {
	return m.client.Count(ctx, m.roleID)
}

// Stats returns record and index counts.
func (m *RoleMemory) Stats(ctx context.Context) RoleStats {
	return m.client.Stats(ctx, m.roleID)
}
