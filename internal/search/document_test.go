package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/mocks"
	"github.com/modhaven/mh-aggregator/internal/search"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

var formatterNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func setupFormatterTest(t *testing.T) (*gomock.Controller, *mocks.MockStore, *mocks.MockClock, search.DocumentFormatter) {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	clock := mocks.NewMockClock(ctrl)
	formatter := search.NewDocumentFormatter(st, clock, 7*24*time.Hour)
	return ctrl, st, clock, formatter
}

func TestDocumentFormatter_Format(t *testing.T) {
	ctrl, st, clock, formatter := setupFormatterTest(t)
	defer ctrl.Finish()

	ctx := context.Background()
	created := formatterNow.Add(-30 * 24 * time.Hour)

	projects := []schema.Project{
		{
			ID:         1,
			Slug:       "iron-tools",
			Name:       "Iron Tools",
			OwnerName:  "smith",
			Summary:    "Sturdier tools",
			IconURL:    "https://cdn.example.com/icons/1.png",
			Visibility: domain.VisibilityPublic,
			Status:     domain.ProjectStatusApproved,
			Tags:       datatypes.JSONSlice[string]{"tools", "equipment"},
			Downloads:  1200,
			Stars:      40,
			CreatedAt:  created,
			UpdatedAt:  formatterNow,
		},
		{
			ID:        2,
			Slug:      "bare-bones",
			Name:      "Bare Bones",
			OwnerName: "smith",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	clock.EXPECT().Now().Return(formatterNow)
	st.EXPECT().
		GetRecentDownloads(gomock.Any(), []uint64{1, 2}, formatterNow.Add(-7*24*time.Hour)).
		Return(map[uint64]uint64{1: 300}, nil)

	docs, err := formatter.Format(ctx, projects)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, domain.ProjectSearchDocument{
		ID:              1,
		Slug:            "iron-tools",
		Name:            "Iron Tools",
		OwnerName:       "smith",
		Summary:         "Sturdier tools",
		IconURL:         "https://cdn.example.com/icons/1.png",
		Tags:            []string{"tools", "equipment"},
		Downloads:       1200,
		RecentDownloads: 300,
		Stars:           40,
		DateCreated:     created,
		DateUpdated:     formatterNow,
	}, docs[0])

	// A project with no recent downloads gets zero, and nil tags become an
	// empty array so the document never serializes tags as null
	assert.Zero(t, docs[1].RecentDownloads)
	assert.NotNil(t, docs[1].Tags)
	assert.Empty(t, docs[1].Tags)
}

func TestDocumentFormatter_FormatEmptyInput(t *testing.T) {
	ctrl, _, _, formatter := setupFormatterTest(t)
	defer ctrl.Finish()

	docs, err := formatter.Format(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, docs)
}

func TestDocumentFormatter_FormatStoreError(t *testing.T) {
	ctrl, st, clock, formatter := setupFormatterTest(t)
	defer ctrl.Finish()

	clock.EXPECT().Now().Return(formatterNow)
	st.EXPECT().
		GetRecentDownloads(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	_, err := formatter.Format(context.Background(), []schema.Project{{ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get recent downloads")
}
