package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadValidate(t *testing.T) {
	lead := &Lead{PipelineID: "p1", Title: "Acme deal"}
	assert.NoError(t, lead.Validate())

	assert.Error(t, (&Lead{Title: "Acme deal"}).Validate())
	assert.Error(t, (&Lead{PipelineID: "p1"}).Validate())
	assert.Error(t, (&Lead{PipelineID: "p1", Title: "Acme deal", Email: "not-an-email"}).Validate())
	assert.Error(t, (&Lead{PipelineID: "p1", Title: "Acme deal", ReqAmount: -5}).Validate())
}

func TestLeadListParamsValidate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params := LeadListParams{}
		require.NoError(t, params.Validate())
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, 50, params.Limit)
		assert.Equal(t, "created_at", params.SortBy)
		assert.Equal(t, "desc", params.SortOrder)
	})

	t.Run("limit capped", func(t *testing.T) {
		params := LeadListParams{Limit: 500}
		require.NoError(t, params.Validate())
		assert.Equal(t, 100, params.Limit)
	})

	t.Run("unknown sort key rejected", func(t *testing.T) {
		params := LeadListParams{SortBy: "tenant_id"}
		assert.Error(t, params.Validate())
	})

	t.Run("bad sort order rejected", func(t *testing.T) {
		params := LeadListParams{SortOrder: "sideways"}
		assert.Error(t, params.Validate())
	})

	t.Run("offset", func(t *testing.T) {
		params := LeadListParams{Page: 3, Limit: 20}
		require.NoError(t, params.Validate())
		assert.Equal(t, 40, params.Offset())
	})
}

func TestLeadListParamsFromURLParams(t *testing.T) {
	var params LeadListParams
	err := params.FromURLParams(url.Values{
		"page":        {"2"},
		"limit":       {"25"},
		"search":      {"acme"},
		"pipeline_id": {"p1"},
		"status":      {"Contacted"},
		"sort_by":     {"title"},
		"sort_order":  {"ASC"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "acme", params.Search)
	assert.Equal(t, "Contacted", params.Status)
	assert.Equal(t, "title", params.SortBy)
	assert.Equal(t, "asc", params.SortOrder)

	err = params.FromURLParams(url.Values{"page": {"two"}})
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 1, 50)
	assert.Equal(t, 0, p.TotalPages)

	p = NewPagination(50, 1, 50)
	assert.Equal(t, 1, p.TotalPages)

	p = NewPagination(51, 2, 50)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 2, p.Page)
}

func TestCreateLeadRequestValidate(t *testing.T) {
	req := &CreateLeadRequest{
		PipelineID: "p1",
		Title:      "Acme deal",
		Phones:     []LeadPhone{{Type: "work", Number: "+61 2 5550 1234"}},
	}
	lead, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "p1", lead.PipelineID)
	require.Len(t, lead.Phones, 1)

	_, err = (&CreateLeadRequest{PipelineID: "p1"}).Validate()
	assert.Error(t, err)
}

func TestUpdateLeadRequestValidate(t *testing.T) {
	title := "Updated deal"
	req := &UpdateLeadRequest{
		ID:        "l1",
		Title:     &title,
		PhonesSet: true,
	}
	patch, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "l1", patch.ID)
	assert.Equal(t, title, *patch.Title)
	assert.True(t, patch.PhonesSet)
	assert.False(t, patch.EmailsSet)

	t.Run("missing id", func(t *testing.T) {
		_, err := (&UpdateLeadRequest{Title: &title}).Validate()
		assert.Error(t, err)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		empty := ""
		_, err := (&UpdateLeadRequest{ID: "l1", Title: &empty}).Validate()
		assert.Error(t, err)
	})

	t.Run("empty status rejected", func(t *testing.T) {
		empty := ""
		_, err := (&UpdateLeadRequest{ID: "l1", Status: &empty}).Validate()
		assert.Error(t, err)
	})
}

func TestLeadPatchHasScalarChanges(t *testing.T) {
	assert.False(t, (&LeadPatch{ID: "l1", PhonesSet: true}).HasScalarChanges())

	title := "x"
	assert.True(t, (&LeadPatch{ID: "l1", Title: &title}).HasScalarChanges())
}
