package geoguessr

import (
	"context"
	"time"

	"github.com/geoliga/geoliga/internal/models"
)

// ClientInterface defines the interface for GeoGuessr API operations.
// This interface enables testability by allowing mock implementations.
type ClientInterface interface {
	FetchHighscores(ctx context.Context, challengeToken string) ([]models.ResultRow, MapInfo, error)
	FetchPlayedAt(ctx context.Context, gameToken string) (*time.Time, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
