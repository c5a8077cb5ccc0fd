package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockClient implements Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func titlePage(name string) notionapi.Page {
	return notionapi.Page{
		Properties: notionapi.Properties{
			"Name": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: name}},
			},
		},
	}
}

func TestListNames_SinglePage(t *testing.T) {
	client := &mockClient{}
	ctx := context.Background()

	client.On("QueryDatabase", ctx, "db-1", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{titlePage("Jane Doe"), titlePage("Acme Capital")},
			HasMore: false,
		}, nil).Once()

	names, err := ListNames(ctx, client, "db-1", "Name")

	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "Acme Capital"}, names)
	client.AssertExpectations(t)
}

func TestListNames_Paginates(t *testing.T) {
	client := &mockClient{}
	ctx := context.Background()

	client.On("QueryDatabase", ctx, "db-1", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results:    []notionapi.Page{titlePage("Jane Doe")},
			HasMore:    true,
			NextCursor: "cursor-2",
		}, nil).Once()
	client.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "cursor-2"
	})).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{titlePage("John Smith")},
			HasMore: false,
		}, nil).Once()

	names, err := ListNames(ctx, client, "db-1", "Name")

	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, names)
	client.AssertExpectations(t)
}

func TestListNames_SkipsEmptyAndMissingProperties(t *testing.T) {
	client := &mockClient{}
	ctx := context.Background()

	pages := []notionapi.Page{
		titlePage("Jane Doe"),
		titlePage("   "),
		{Properties: notionapi.Properties{}},
		{Properties: notionapi.Properties{
			"Name": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: "Acme "}, {PlainText: "Capital"}},
			},
		}},
	}
	client.On("QueryDatabase", ctx, "db-1", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{Results: pages}, nil).Once()

	names, err := ListNames(ctx, client, "db-1", "Name")

	require.NoError(t, err)
	// Rich-text fragments concatenate; blank and missing properties drop.
	assert.Equal(t, []string{"Jane Doe", "Acme Capital"}, names)
	client.AssertExpectations(t)
}

func TestListNames_QueryError(t *testing.T) {
	client := &mockClient{}
	ctx := context.Background()

	client.On("QueryDatabase", ctx, "db-1", mock.Anything).
		Return(nil, eris.New("unauthorized")).Once()

	_, err := ListNames(ctx, client, "db-1", "Name")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list names")
	client.AssertExpectations(t)
}
