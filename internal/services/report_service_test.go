package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/geoguessr"
	"github.com/geoliga/geoliga/internal/league"
	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/testutil/mocks"
)

func challengeURL(token string) string {
	return fmt.Sprintf("https://www.geoguessr.com/challenge/%s", token)
}

func defaultOpts() BuildOptions {
	return BuildOptions{TieMode: league.TieAverage, Location: time.UTC}
}

func rowsFor(players ...string) []models.ResultRow {
	rows := make([]models.ResultRow, 0, len(players))
	for i, p := range players {
		rows = append(rows, models.ResultRow{
			Player:    p,
			TotalPts:  10000 - i*1000,
			TotalTime: 100 + i*10,
			GameToken: "game-" + p,
		})
	}
	return rows
}

func TestBuildReport_SingleWeek(t *testing.T) {
	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").
		Return(rowsFor("alice", "bob"), geoguessr.MapInfo{Name: "World", RuleText: "NM - 2 min"}, nil)

	svc := NewReportService(client, nil, defaultOpts())
	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	assert.Equal(t, "average", report.TieMode)
	assert.Equal(t, []string{"Vecka 1"}, report.WeekLabels)
	assert.Nil(t, report.Filtered, "no deadline means no filtered variant")

	require.Len(t, report.All.Weeks, 1)
	week := report.All.Weeks[0]
	require.Len(t, week.Maps, 1)
	assert.Equal(t, "World", week.Maps[0].Name)

	require.Len(t, week.Standings, 2)
	assert.Equal(t, "alice", week.Standings[0].Player)
	assert.InDelta(t, 2.0, week.Standings[0].TotalBorda, 1e-9)

	require.Len(t, report.All.Total, 2)
	assert.Equal(t, "alice", report.All.Total[0].Player)
	assert.Len(t, report.All.Raw, 2)
}

func TestBuildReport_MapOrderMatchesConfiguration(t *testing.T) {
	client := new(mocks.MockGeoClient)
	for i := 1; i <= 5; i++ {
		token := fmt.Sprintf("tok%d", i)
		client.On("FetchHighscores", mock.Anything, token).
			Return(rowsFor("alice"), geoguessr.MapInfo{Name: "Map " + token}, nil)
	}

	urls := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		urls = append(urls, challengeURL(fmt.Sprintf("tok%d", i)))
	}

	opts := defaultOpts()
	opts.MaxConcurrentMaps = 3
	svc := NewReportService(client, nil, opts)

	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: urls},
	})
	require.NoError(t, err)

	maps := report.All.Weeks[0].Maps
	require.Len(t, maps, 5)
	for i, m := range maps {
		assert.Equal(t, fmt.Sprintf("tok%d", i+1), m.Token, "maps must stay in configured order")
		assert.Equal(t, i+1, m.MapIndex)
	}
}

func TestBuildReport_InvalidTieModeFailsBeforeFetching(t *testing.T) {
	client := new(mocks.MockGeoClient)

	opts := defaultOpts()
	opts.TieMode = league.TieMode("median")
	svc := NewReportService(client, nil, opts)

	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}},
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidTieMode, appErr.Code)
	client.AssertNotCalled(t, "FetchHighscores", mock.Anything, mock.Anything)
}

func TestBuildReport_BadDeadlineFailsBeforeFetching(t *testing.T) {
	client := new(mocks.MockGeoClient)
	svc := NewReportService(client, nil, defaultOpts())

	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}, Deadline: "nonsense"},
	})
	require.Error(t, err)
	client.AssertNotCalled(t, "FetchHighscores", mock.Anything, mock.Anything)
}

func TestBuildReport_NoWeeks(t *testing.T) {
	svc := NewReportService(new(mocks.MockGeoClient), nil, defaultOpts())
	_, err := svc.BuildReport(context.Background(), nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeBadRequest, appErr.Code)
}

func TestBuildReport_WeekWithoutURLs(t *testing.T) {
	svc := NewReportService(new(mocks.MockGeoClient), nil, defaultOpts())
	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{{Label: "Vecka 1"}})
	require.Error(t, err)
}

func TestBuildReport_FilteredVariant(t *testing.T) {
	onTime := time.Date(2026, 2, 18, 18, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)

	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").
		Return(rowsFor("alice", "bob"), geoguessr.MapInfo{Name: "World"}, nil)
	client.On("FetchPlayedAt", mock.Anything, "game-alice").Return(&onTime, nil)
	client.On("FetchPlayedAt", mock.Anything, "game-bob").Return(&late, nil)

	opts := defaultOpts()
	opts.FetchPlayedAt = true
	svc := NewReportService(client, nil, opts)

	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}, Deadline: "2026-02-18 20:00"},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	// The unfiltered variant keeps everyone.
	require.Len(t, report.All.Weeks[0].Standings, 2)

	require.NotNil(t, report.Filtered)
	standings := report.Filtered.Weeks[0].Standings
	require.Len(t, standings, 1)
	assert.Equal(t, "alice", standings[0].Player)
}

func TestBuildReport_DeadlineWithoutPlayedAtFetchWarns(t *testing.T) {
	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").
		Return(rowsFor("alice"), geoguessr.MapInfo{}, nil)

	svc := NewReportService(client, nil, defaultOpts())
	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}, Deadline: "2026-02-18 20:00"},
	})
	require.NoError(t, err)

	assert.Nil(t, report.Filtered)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[len(report.Warnings)-1], "played-at fetching is disabled")
	client.AssertNotCalled(t, "FetchPlayedAt", mock.Anything, mock.Anything)
}

func TestBuildReport_NoResolvableTimestampsWarns(t *testing.T) {
	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").
		Return(rowsFor("alice"), geoguessr.MapInfo{}, nil)
	client.On("FetchPlayedAt", mock.Anything, "game-alice").Return(nil, nil)

	opts := defaultOpts()
	opts.FetchPlayedAt = true
	svc := NewReportService(client, nil, opts)

	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}, Deadline: "2026-02-18 20:00"},
	})
	require.NoError(t, err)

	assert.Nil(t, report.Filtered)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[len(report.Warnings)-1], "no played-at timestamps could be resolved")
}

func TestBuildReport_PlayedAtLookupsAreCached(t *testing.T) {
	played := time.Date(2026, 2, 18, 18, 0, 0, 0, time.UTC)
	shared := []models.ResultRow{
		{Player: "alice", TotalPts: 10000, TotalTime: 100, GameToken: "game-shared"},
	}

	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").Return(shared, geoguessr.MapInfo{}, nil)
	client.On("FetchHighscores", mock.Anything, "tok2").Return(shared, geoguessr.MapInfo{}, nil)
	client.On("FetchPlayedAt", mock.Anything, "game-shared").Return(&played, nil).Once()

	opts := defaultOpts()
	opts.FetchPlayedAt = true
	opts.MaxConcurrentMaps = 1
	svc := NewReportService(client, nil, opts)

	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1"), challengeURL("tok2")}, Deadline: "2026-02-18 20:00"},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "FetchPlayedAt", 1)
}

func TestBuildReport_EmptyMapIsOmittedWithWarning(t *testing.T) {
	client := new(mocks.MockGeoClient)
	client.On("FetchHighscores", mock.Anything, "tok1").
		Return(rowsFor("alice"), geoguessr.MapInfo{}, nil)
	client.On("FetchHighscores", mock.Anything, "tok2").
		Return(nil, geoguessr.MapInfo{}, nil)

	svc := NewReportService(client, nil, defaultOpts())
	report, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1"), challengeURL("tok2")}},
	})
	require.NoError(t, err)

	week := report.All.Weeks[0]
	assert.Equal(t, []string{"tok2"}, week.Omitted)
	require.Len(t, week.Maps, 1)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "tok2")
}

func TestBuildReport_BadChallengeURLIsFatal(t *testing.T) {
	client := new(mocks.MockGeoClient)
	svc := NewReportService(client, nil, defaultOpts())

	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{"https://www.geoguessr.com"}},
	})
	require.Error(t, err)
	client.AssertNotCalled(t, "FetchHighscores", mock.Anything, mock.Anything)
}

func TestBuildReport_OfflineWithoutSnapshots(t *testing.T) {
	opts := defaultOpts()
	opts.Offline = true
	svc := NewReportService(new(mocks.MockGeoClient), nil, opts)

	_, err := svc.BuildReport(context.Background(), []models.WeekSpec{
		{Label: "Vecka 1", URLs: []string{challengeURL("tok1")}},
	})
	require.Error(t, err)
}
