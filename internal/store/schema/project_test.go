package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

func TestProject_Indexable(t *testing.T) {
	tests := []struct {
		name       string
		visibility domain.Visibility
		status     domain.ProjectStatus
		indexable  bool
	}{
		{
			name:       "public approved",
			visibility: domain.VisibilityPublic,
			status:     domain.ProjectStatusApproved,
			indexable:  true,
		},
		{
			name:       "archived approved stays searchable",
			visibility: domain.VisibilityArchived,
			status:     domain.ProjectStatusApproved,
			indexable:  true,
		},
		{
			name:       "unlisted approved",
			visibility: domain.VisibilityUnlisted,
			status:     domain.ProjectStatusApproved,
			indexable:  false,
		},
		{
			name:       "private approved",
			visibility: domain.VisibilityPrivate,
			status:     domain.ProjectStatusApproved,
			indexable:  false,
		},
		{
			name:       "public pending",
			visibility: domain.VisibilityPublic,
			status:     domain.ProjectStatusPending,
			indexable:  false,
		},
		{
			name:       "archived rejected",
			visibility: domain.VisibilityArchived,
			status:     domain.ProjectStatusRejected,
			indexable:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := schema.Project{Visibility: tt.visibility, Status: tt.status}
			assert.Equal(t, tt.indexable, p.Indexable())
		})
	}
}
