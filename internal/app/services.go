package app

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"gorm.io/gorm"

	"iamercado/internal/ai"
	"iamercado/internal/auth"
	"iamercado/internal/pricing"
	"iamercado/internal/repo"
	"iamercado/internal/services"
	"iamercado/internal/session"
	"iamercado/internal/vocab"
	"iamercado/internal/whatsapp"
)

// Services holds the application dependency graph
type Services struct {
	DB          *gorm.DB
	AuthService *auth.Service

	UserRepo     *repo.UserRepository
	CustomerRepo *repo.CustomerRepository
	ProductRepo  *repo.ProductRepository
	VocabRepo    *repo.VocabularyRepository
	OrderRepo    *repo.OrderRepository
	MessageRepo  *repo.MessageRepository

	Tracker          *session.Tracker
	Clock            *services.LocalClock
	EmbeddingService *services.EmbeddingService
	StorageService   *services.StorageService
	StockClient      *services.StockClient
	DashboardClient  *services.DashboardClient
	WhatsApp         *whatsapp.Client
	Attendant        *ai.AttendantService
}

// NewServices wires the application together from environment configuration
func NewServices(db *gorm.DB) (*Services, error) {
	userRepo := repo.NewUserRepository(db)
	customerRepo := repo.NewCustomerRepository(db)
	productRepo := repo.NewProductRepository(db)
	vocabRepo := repo.NewVocabularyRepository(db)
	orderRepo := repo.NewOrderRepository(db)
	messageRepo := repo.NewMessageRepository(db)

	authService := auth.NewService(userRepo)
	tracker := session.NewTracker(db)

	clock, err := services.NewLocalClock()
	if err != nil {
		return nil, err
	}

	openaiAPIKey := os.Getenv("OPENAI_API_KEY")

	// The vector knowledge base is optional; without it EAN lookup falls back
	// to the database full-text search
	var embeddingService *services.EmbeddingService
	if qdrantURL := os.Getenv("QDRANT_URL"); qdrantURL != "" && openaiAPIKey != "" {
		embeddingService, err = services.NewEmbeddingService(openaiAPIKey, qdrantURL, os.Getenv("QDRANT_PASSWORD"))
		if err != nil {
			log.Warn().Err(err).Msg("vector store unavailable, using database product search")
			embeddingService = nil
		}
	}

	storageService, err := services.NewStorageService()
	if err != nil {
		log.Warn().Err(err).Msg("S3 not configured, receipt images will keep gateway URLs")
		storageService = nil
	}

	stockClient := services.NewStockClient(os.Getenv("ERP_STOCK_URL"), os.Getenv("ERP_STOCK_TOKEN"))
	dashboardClient := services.NewDashboardClient(os.Getenv("DASHBOARD_URL"), os.Getenv("DASHBOARD_TOKEN"))
	whatsappClient := whatsapp.NewClient()

	policy := pricing.Reject
	if os.Getenv("MIN_WEIGHT_POLICY") == "clamp" {
		policy = pricing.ClampUp
	}

	var products ai.ProductFinder
	if embeddingService != nil {
		products = embeddingService
	} else {
		products = &dbProductFinder{products: productRepo}
	}
	var storage ai.ReceiptStore
	if storageService != nil {
		storage = storageService
	}

	attendant := ai.NewAttendantService(ai.AttendantConfig{
		Client:     openai.NewClient(openaiAPIKey),
		Model:      os.Getenv("OPENAI_MODEL"),
		Normalizer: loadNormalizer(vocabRepo),
		Calculator: pricing.NewCalculator(policy),
		Tracker:    tracker,
		Clock:      clock,
		Products:   products,
		Stock:      stockClient,
		Dashboard:  dashboardClient,
		Catalog:    productRepo,
		Customers:  customerRepo,
		Messages:   messageRepo,
		Orders:     orderRepo,
		Storage:    storage,
	})

	return &Services{
		DB:               db,
		AuthService:      authService,
		UserRepo:         userRepo,
		CustomerRepo:     customerRepo,
		ProductRepo:      productRepo,
		VocabRepo:        vocabRepo,
		OrderRepo:        orderRepo,
		MessageRepo:      messageRepo,
		Tracker:          tracker,
		Clock:            clock,
		EmbeddingService: embeddingService,
		StorageService:   storageService,
		StockClient:      stockClient,
		DashboardClient:  dashboardClient,
		WhatsApp:         whatsappClient,
		Attendant:        attendant,
	}, nil
}

// ReloadVocabulary rebuilds the attendant's normalizer from the database
func (s *Services) ReloadVocabulary() {
	s.Attendant.SetNormalizer(loadNormalizer(s.VocabRepo))
}

// loadNormalizer merges the built-in regional table with database overrides
func loadNormalizer(vocabRepo *repo.VocabularyRepository) *vocab.Normalizer {
	overrides, err := vocabRepo.AsMap()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load vocabulary overrides")
		return vocab.NewNormalizer()
	}
	return vocab.NewNormalizerWith(overrides)
}

// dbProductFinder answers EAN lookups from the catalog database when the
// vector store is not available
type dbProductFinder struct {
	products *repo.ProductRepository
}

func (f *dbProductFinder) SearchEANCandidates(ctx context.Context, query string, max int) ([]services.EANCandidate, error) {
	found, err := f.products.Search(query, 20)
	if err != nil {
		return nil, err
	}

	candidates := make([]services.EANCandidate, 0, len(found))
	for _, p := range found {
		candidates = append(candidates, services.EANCandidate{
			EAN:  p.EAN,
			Name: p.Name,
		})
	}
	return services.RankCandidates(query, candidates, max), nil
}
