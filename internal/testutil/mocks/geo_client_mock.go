// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/geoliga/geoliga/internal/geoguessr"
	"github.com/geoliga/geoliga/internal/models"
)

// MockGeoClient is a mock implementation of geoguessr.ClientInterface.
type MockGeoClient struct {
	mock.Mock
}

var _ geoguessr.ClientInterface = (*MockGeoClient)(nil)

func (m *MockGeoClient) FetchHighscores(ctx context.Context, challengeToken string) ([]models.ResultRow, geoguessr.MapInfo, error) {
	args := m.Called(ctx, challengeToken)
	var rows []models.ResultRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]models.ResultRow)
	}
	return rows, args.Get(1).(geoguessr.MapInfo), args.Error(2)
}

func (m *MockGeoClient) FetchPlayedAt(ctx context.Context, gameToken string) (*time.Time, error) {
	args := m.Called(ctx, gameToken)
	var ts *time.Time
	if args.Get(0) != nil {
		ts = args.Get(0).(*time.Time)
	}
	return ts, args.Error(1)
}
