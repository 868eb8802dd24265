package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/minio/highwayhash"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"docrank/internal/domain"
)

const defaultAddress = "localhost:6334"

var pointKey = []byte("docrank-qdrant-point-id-key-0001")

// Storage keeps one run's unit vectors in a Qdrant collection over gRPC.
// The collection uses cosine distance; Clear followed by Init recreates it.
type Storage struct {
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	conn        *grpc.ClientConn
	apiKey      string
	collection  string
	timeout     time.Duration
}

type Config struct {
	// Address is the gRPC host:port, 6334 by default.
	Address    string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewStorage connects to the Qdrant gRPC endpoint at cfg.Address.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	conn, err := grpc.NewClient(cfg.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant %s: %w", cfg.Address, err)
	}
	s := newStorage(qdrantclient.NewCollectionsClient(conn), qdrantclient.NewPointsClient(conn), cfg)
	s.conn = conn
	return s, nil
}

func newStorage(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient, cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		collections: collections,
		points:      points,
		apiKey:      cfg.APIKey,
		collection:  cfg.Collection,
		timeout:     timeout,
	}
}

// Close releases the gRPC connection.
func (s *Storage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	_, err := s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, units []domain.TextUnit, vectors [][]float64) error {
	if len(units) != len(vectors) {
		return errors.New("units and vectors length mismatch")
	}
	points := make([]*qdrantclient.PointStruct, len(units))
	for i, u := range units {
		points[i] = &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Num{Num: PointID(u, i)},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: toFloat32(vectors[i])},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"document":   stringValue(u.Document),
				"page_index": intValue(u.PageIndex),
				"position":   intValue(i),
				"title":      stringValue(u.Title),
				"text":       stringValue(u.Text),
			},
		}
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         toFloat32(vector),
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.collection, err)
	}
	results := make([]domain.SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := point.GetPayload()
		unit := domain.TextUnit{
			Document:  payload["document"].GetStringValue(),
			PageIndex: int(payload["page_index"].GetIntegerValue()),
			Title:     payload["title"].GetStringValue(),
			Text:      payload["text"].GetStringValue(),
		}
		position := -1
		if v, ok := payload["position"]; ok {
			position = int(v.GetIntegerValue())
		}
		results = append(results, domain.SearchResult{Unit: unit, Position: position, Score: float64(point.GetScore())})
	}
	return results, nil
}

// Clear drops the collection if it exists.
func (s *Storage) Clear(ctx context.Context) error {
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	list, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() != s.collection {
			continue
		}
		if _, err := s.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: s.collection}); err != nil {
			return fmt.Errorf("delete collection %s: %w", s.collection, err)
		}
		break
	}
	return nil
}

// PointID derives a stable unsigned point id for a unit at a batch position.
func PointID(unit domain.TextUnit, position int) uint64 {
	key := unit.Document + "\x00" + strconv.Itoa(unit.PageIndex) + "\x00" + strconv.Itoa(position)
	return highwayhash.Sum64([]byte(key), pointKey)
}

func (s *Storage) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	if s.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
	}
	return ctx, cancel
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func intValue(n int) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(n)}}
}
