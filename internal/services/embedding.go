package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"iamercado/pkg/models"

	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const productCollection = "catalog_kb"

// basicAuth implements credentials.PerRPCCredentials for Qdrant token auth
type basicAuth struct {
	password string
}

func (b *basicAuth) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{
		"authorization": "Bearer " + b.password,
	}, nil
}

func (b *basicAuth) RequireTransportSecurity() bool {
	return false
}

// EmbeddingService is the vector knowledge base behind the EAN lookup tool.
// Catalog entries are embedded with OpenAI and stored in Qdrant; the lookup
// returns candidate EAN codes for a normalized customer query.
type EmbeddingService struct {
	openaiClient *openai.Client
	collections  qdrant.CollectionsClient
	conn         *grpc.ClientConn
}

// NewEmbeddingService connects to Qdrant and prepares the OpenAI client
func NewEmbeddingService(openaiAPIKey, qdrantURL, qdrantPassword string) (*EmbeddingService, error) {
	openaiClient := openai.NewClient(openaiAPIKey)

	var dialOpts []grpc.DialOption
	if qdrantPassword != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(&basicAuth{password: qdrantPassword}))
	}
	dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))

	conn, err := grpc.Dial(qdrantURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	s := &EmbeddingService{
		openaiClient: openaiClient,
		collections:  qdrant.NewCollectionsClient(conn),
		conn:         conn,
	}
	log.Info().Str("qdrant_url", qdrantURL).Msg("embedding service initialized")
	return s, nil
}

// Close releases the Qdrant connection
func (s *EmbeddingService) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// GenerateEmbedding embeds one text with text-embedding-3-small
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.SmallEmbedding3,
	}

	resp, err := s.openaiClient.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}
	return resp.Data[0].Embedding, nil
}

// SearchEANCandidates embeds the query, searches the catalog collection and
// returns relevance-ranked EAN candidates (at most max)
func (s *EmbeddingService) SearchEANCandidates(ctx context.Context, query string, max int) ([]EANCandidate, error) {
	vector, err := s.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	points := qdrant.NewPointsClient(s.conn)
	resp, err := points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: productCollection,
		Vector:         vector,
		Limit:          20,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in qdrant: %w", err)
	}

	candidates := make([]EANCandidate, 0, len(resp.Result))
	for _, point := range resp.Result {
		c := EANCandidate{Similarity: point.Score}
		if payload := point.Payload; payload != nil {
			if v, ok := payload["ean"]; ok {
				if str, ok := v.Kind.(*qdrant.Value_StringValue); ok {
					c.EAN = str.StringValue
				}
			}
			if v, ok := payload["name"]; ok {
				if str, ok := v.Kind.(*qdrant.Value_StringValue); ok {
					c.Name = str.StringValue
				}
			}
		}
		if c.EAN == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	return RankCandidates(query, candidates, max), nil
}

// SyncProducts embeds catalog entries whose content changed since the last
// sync and upserts them into the knowledge base. Returns how many were
// re-embedded.
func (s *EmbeddingService) SyncProducts(ctx context.Context, productRepo ProductSyncRepo) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, err
	}

	products, err := productRepo.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	points := qdrant.NewPointsClient(s.conn)
	synced := 0
	for i := range products {
		p := &products[i]
		text := embeddingText(p)
		hash := contentHash(text)
		if p.EmbeddingHash == hash {
			continue
		}

		vector, err := s.GenerateEmbedding(ctx, text)
		if err != nil {
			log.Error().Err(err).Str("ean", p.EAN).Msg("failed to embed product")
			continue
		}

		_, err = points.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: productCollection,
			Points: []*qdrant.PointStruct{
				{
					Id: &qdrant.PointId{
						PointIdOptions: &qdrant.PointId_Uuid{Uuid: p.ID.String()},
					},
					Vectors: &qdrant.Vectors{
						VectorsOptions: &qdrant.Vectors_Vector{
							Vector: &qdrant.Vector{Data: vector},
						},
					},
					Payload: map[string]*qdrant.Value{
						"ean":  {Kind: &qdrant.Value_StringValue{StringValue: p.EAN}},
						"name": {Kind: &qdrant.Value_StringValue{StringValue: p.Name}},
					},
				},
			},
		})
		if err != nil {
			log.Error().Err(err).Str("ean", p.EAN).Msg("failed to upsert product embedding")
			continue
		}

		p.EmbeddingHash = hash
		if err := productRepo.Upsert(p); err != nil {
			log.Error().Err(err).Str("ean", p.EAN).Msg("failed to record embedding hash")
		}
		synced++
	}

	log.Info().Int("synced", synced).Int("total", len(products)).Msg("catalog embedding sync finished")
	return synced, nil
}

// ProductSyncRepo is the slice of the product repository the sync needs
type ProductSyncRepo interface {
	ListActive() ([]models.Product, error)
	Upsert(product *models.Product) error
}

func (s *EmbeddingService) ensureCollection(ctx context.Context) error {
	_, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: productCollection,
	})
	if err == nil {
		return nil
	}

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: productCollection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     1536, // text-embedding-3-small dimension
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", productCollection, err)
	}
	log.Info().Str("collection", productCollection).Msg("qdrant collection created")
	return nil
}

func embeddingText(p *models.Product) string {
	parts := []string{p.Name}
	if p.Brand != "" {
		parts = append(parts, p.Brand)
	}
	if p.Tags != "" {
		parts = append(parts, p.Tags)
	}
	if p.Category != nil {
		parts = append(parts, p.Category.Name)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	return strings.Join(parts, " | ")
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
