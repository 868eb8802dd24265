package qdrant

import (
	"context"
	"errors"
	"testing"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"docrank/internal/domain"
)

// fakeCollections overrides the collection RPCs the store uses.
type fakeCollections struct {
	qdrantclient.CollectionsClient
	existing []string
	created  []*qdrantclient.CreateCollection
	deleted  []string
	apiKeys  []string
	err      error
}

func (f *fakeCollections) List(ctx context.Context, _ *qdrantclient.ListCollectionsRequest, _ ...grpc.CallOption) (*qdrantclient.ListCollectionsResponse, error) {
	f.recordKey(ctx)
	if f.err != nil {
		return nil, f.err
	}
	resp := &qdrantclient.ListCollectionsResponse{}
	for _, name := range f.existing {
		resp.Collections = append(resp.Collections, &qdrantclient.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeCollections) Create(ctx context.Context, in *qdrantclient.CreateCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.recordKey(ctx)
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Delete(ctx context.Context, in *qdrantclient.DeleteCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.recordKey(ctx)
	f.deleted = append(f.deleted, in.GetCollectionName())
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) recordKey(ctx context.Context) {
	md, _ := metadata.FromOutgoingContext(ctx)
	f.apiKeys = append(f.apiKeys, md.Get("api-key")...)
}

// fakePoints keeps upserted points and answers searches with canned results.
type fakePoints struct {
	qdrantclient.PointsClient
	upserted []*qdrantclient.PointStruct
	search   *qdrantclient.SearchPoints
	result   []*qdrantclient.ScoredPoint
}

func (f *fakePoints) Upsert(_ context.Context, in *qdrantclient.UpsertPoints, _ ...grpc.CallOption) (*qdrantclient.PointsOperationResponse, error) {
	f.upserted = append(f.upserted, in.GetPoints()...)
	return &qdrantclient.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(_ context.Context, in *qdrantclient.SearchPoints, _ ...grpc.CallOption) (*qdrantclient.SearchResponse, error) {
	f.search = in
	return &qdrantclient.SearchResponse{Result: f.result}, nil
}

func TestStorage_RoundTrip(t *testing.T) {
	cols := &fakeCollections{existing: []string{"other", "units"}}
	pts := &fakePoints{result: []*qdrantclient.ScoredPoint{
		{Score: 0.75, Payload: map[string]*qdrantclient.Value{
			"document": stringValue("b.pdf"), "page_index": intValue(4), "position": intValue(1),
			"title": stringValue("B"), "text": stringValue("beta"),
		}},
		{Score: 0.25, Payload: map[string]*qdrantclient.Value{
			"document": stringValue("a.pdf"), "page_index": intValue(0), "position": intValue(0),
		}},
	}}
	s := newStorage(cols, pts, Config{APIKey: "k", Collection: "units"})
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, []string{"units"}, cols.deleted)

	require.NoError(t, s.Init(ctx, 2))
	require.Len(t, cols.created, 1)
	params := cols.created[0].GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(2), params.GetSize())
	assert.Equal(t, qdrantclient.Distance_Cosine, params.GetDistance())

	in := []domain.TextUnit{{Document: "a.pdf", PageIndex: 0, Text: "alpha"}, {Document: "b.pdf", PageIndex: 4, Text: "beta"}}
	require.NoError(t, s.Upsert(ctx, in, [][]float64{{1, 0}, {0, 1}}))
	require.Len(t, pts.upserted, 2)
	second := pts.upserted[1]
	assert.Equal(t, PointID(in[1], 1), second.GetId().GetNum())
	assert.Equal(t, int64(1), second.GetPayload()["position"].GetIntegerValue())
	assert.Equal(t, int64(4), second.GetPayload()["page_index"].GetIntegerValue())
	assert.Equal(t, []float32{0, 1}, second.GetVectors().GetVector().GetData())

	res, err := s.Search(ctx, []float64{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pts.search.GetLimit())
	assert.Equal(t, "units", pts.search.GetCollectionName())
	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].Position)
	assert.Equal(t, "b.pdf", res[0].Unit.Document)
	assert.Equal(t, 4, res[0].Unit.PageIndex)
	assert.Equal(t, "beta", res[0].Unit.Text)
	assert.InDelta(t, 0.75, res[0].Score, 1e-6)

	assert.NotEmpty(t, cols.apiKeys)
	for _, k := range cols.apiKeys {
		assert.Equal(t, "k", k)
	}
}

func TestStorage_ClearMissingCollection(t *testing.T) {
	cols := &fakeCollections{existing: []string{"other"}}
	s := newStorage(cols, &fakePoints{}, Config{Collection: "units"})
	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, cols.deleted)
	assert.Empty(t, cols.apiKeys)
}

func TestStorage_Errors(t *testing.T) {
	boom := errors.New("unavailable")
	s := newStorage(&fakeCollections{err: boom}, &fakePoints{}, Config{Collection: "units"})
	ctx := context.Background()

	assert.ErrorIs(t, s.Init(ctx, 3), boom)
	assert.ErrorIs(t, s.Clear(ctx), boom)
	require.Error(t, s.Init(ctx, 0))
	require.Error(t, s.Upsert(ctx, []domain.TextUnit{{}}, nil))
}

func TestSearch_MissingPositionIsNegative(t *testing.T) {
	pts := &fakePoints{result: []*qdrantclient.ScoredPoint{{Score: 0.5}}}
	s := newStorage(&fakeCollections{}, pts, Config{Collection: "units"})
	res, err := s.Search(context.Background(), []float64{1}, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, -1, res[0].Position)
	assert.Equal(t, uint64(5), pts.search.GetLimit())
}

func TestPointID_StableAndDistinct(t *testing.T) {
	u := domain.TextUnit{Document: "a.pdf", PageIndex: 2}
	assert.Equal(t, PointID(u, 0), PointID(u, 0))
	assert.NotEqual(t, PointID(u, 0), PointID(u, 1))
	assert.NotEqual(t, PointID(u, 0), PointID(domain.TextUnit{Document: "a.pdf", PageIndex: 3}, 0))
}
