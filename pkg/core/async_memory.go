package core

import (
	"context"
	"sync"
)

// AsyncClient provides asynchronous vecmem operations.
//
// It wraps the synchronous Client and executes each operation in its own goroutine.
// All async methods return a channel that receives one result and is then closed.
// Operations on the same role still run one at a time.
//
// Example:
//
//	asyncClient, _ := core.NewAsyncClient(config)
//	defer asyncClient.Close()
//
//	errChan := asyncClient.SaveAsync(ctx, "role-1", messages)
//	if err := <-errChan; err != nil {
//	    log.Println(err)
//	}
type AsyncClient struct {
	*Client
	wg sync.WaitGroup
}

// NewAsyncClient creates a new asynchronous vecmem client.
//
// Parameters:
//   - cfg: vecmem configuration
//   - opts: Component overrides, as for NewClient
func NewAsyncClient(cfg *Config, opts ...ClientOption) (*AsyncClient, error) {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{
		Client: client,
	}, nil
}

// SaveAsync memorizes messages asynchronously. See Client.Save.
//
// Returns a channel that receives the Save error (nil on success).
func (ac *AsyncClient) SaveAsync(ctx context.Context, roleID string, messages []Message) <-chan error {
	errChan := make(chan error, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		errChan <- ac.Save(ctx, roleID, messages)
		close(errChan)
	}()

	return errChan
}

// QueryAsync recalls memories asynchronously. See Client.Query.
func (ac *AsyncClient) QueryAsync(ctx context.Context, roleID, text string, opts ...QueryOption) <-chan []*QueryResult {
	resultChan := make(chan []*QueryResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		resultChan <- ac.Query(ctx, roleID, text, opts...)
		close(resultChan)
	}()

	return resultChan
}

// ClearAllAsync removes every memory of roleID asynchronously. See Client.ClearAll.
func (ac *AsyncClient) ClearAllAsync(ctx context.Context, roleID string) <-chan error {
	errChan := make(chan error, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		errChan <- ac.ClearAll(ctx, roleID)
		close(errChan)
	}()

	return errChan
}

// Wait blocks until all operations started by async methods have finished.
func (ac *AsyncClient) Wait() {
	ac.wg.Wait()
}

// Close waits for pending operations, then closes the underlying client.
func (ac *AsyncClient) Close() error {
	ac.Wait()
	return ac.Client.Close()
}
