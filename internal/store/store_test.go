package store

import (
	"context"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)

func (m *mockStore) GetState(ctx context.Context, userID string, today dates.Key) (*types.State, error) {
	return nil, nil
}
func (m *mockStore) ReplaceState(ctx context.Context, userID string, s types.State) (*ReplaceResult, error) {
	return nil, nil
}
func (m *mockStore) ListUsers(ctx context.Context) ([]UserInfo, error) {
	return nil, nil
}
func (m *mockStore) DeleteUser(ctx context.Context, userID string) error {
	return nil
}
func (m *mockStore) GetStats(ctx context.Context) (*Stats, error) {
	return nil, nil
}
func (m *mockStore) Close() error {
	return nil
}
