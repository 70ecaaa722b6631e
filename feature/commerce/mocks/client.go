package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"supplier-sync/feature/commerce"
)

// Client is a mock implementation of commerce.Client
type Client struct {
	mock.Mock
}

func (m *Client) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Client) FindBySKU(ctx context.Context, sku string) (int64, error) {
	args := m.Called(ctx, sku)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Client) CreateDraft(ctx context.Context, payload commerce.ProductPayload) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Client) UpdateDraft(ctx context.Context, remoteID int64, payload commerce.ProductPayload) error {
	args := m.Called(ctx, remoteID, payload)
	return args.Error(0)
}

func (m *Client) BatchCreate(ctx context.Context, payloads []commerce.ProductPayload) ([]commerce.BatchResult, error) {
	args := m.Called(ctx, payloads)
	if res, ok := args.Get(0).([]commerce.BatchResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
