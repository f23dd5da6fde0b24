// main.go - The entry point and router setup.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bosocmputer/account_statement_ai/configs"
	"github.com/bosocmputer/account_statement_ai/internal/ai"
	"github.com/bosocmputer/account_statement_ai/internal/analysis"
	"github.com/bosocmputer/account_statement_ai/internal/api"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/extractor"
	"github.com/bosocmputer/account_statement_ai/internal/ocr"
	"github.com/bosocmputer/account_statement_ai/internal/payment"
	"github.com/bosocmputer/account_statement_ai/internal/processor"
	"github.com/bosocmputer/account_statement_ai/internal/ratelimit"
	"github.com/bosocmputer/account_statement_ai/internal/statements"
	"github.com/bosocmputer/account_statement_ai/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()
	logger := common.NewLogger(configs.LOG_LEVEL)
	log.Logger = logger

	if err := configs.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Step 0.5: Set production mode
	if configs.GIN_MODE == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Step 1: Resolve the PDF renderer and OCR engines
	rasterizer, err := ocr.ResolvePdftoppm(configs.POPPLER_PATH)
	if err != nil {
		log.Fatal().Err(err).Msg("PDF renderer not available")
	}

	chain := &ocr.Chain{
		Native:     ocr.NativeTextReader{},
		Rasterizer: rasterizer,
		Local:      ocr.NewTesseractOCR(configs.OCR_LANGUAGES, configs.OCR_PSM),
		DPI:        configs.OCR_DPI,
	}
	if configs.TextractEnabled() {
		textract, err := ocr.NewTextractOCR(ctx, configs.AWS_ACCESS_KEY_ID, configs.AWS_SECRET_ACCESS_KEY, configs.AWS_REGION)
		if err != nil {
			log.Warn().Err(err).Msg("Textract disabled")
		} else {
			chain.Cloud = textract
			log.Info().Str("region", configs.AWS_REGION).Msg("☁️ Textract enabled")
		}
	}
	if configs.ENABLE_IMAGE_PREPROCESSING {
		maxDimension := configs.MAX_IMAGE_DIMENSION
		chain.Preprocess = func(image []byte) ([]byte, error) {
			return processor.PreprocessForOCR(image, maxDimension)
		}
	}

	// Step 1.5: Load accounting map reference data
	accounts, store, err := storage.LoadAccountingMap(ctx, storage.LoaderConfig{
		File:       configs.ACCOUNTING_MAP_FILE,
		MongoURI:   configs.MONGO_URI,
		MongoDB:    configs.MONGO_DB_NAME,
		Collection: configs.MONGO_ACCOUNTING_COLLECTION,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounting map")
	}
	defer store.Close()

	// Step 2: Completion provider with consensus sampling
	completer, err := ai.CreateCompleterWithFallback()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion provider")
	}
	limiter := ratelimit.NewRateLimiter(configs.LLM_RATE_LIMIT, time.Duration(configs.LLM_RATE_INTERVAL_SECONDS)*time.Second)
	consensus := ai.NewConsensusClient(completer, limiter, ai.ConsensusConfig{
		MaxAttempts:          configs.LLM_MAX_ATTEMPTS,
		VerificationAttempts: configs.LLM_VERIFICATION_ATTEMPTS,
		Temperature:          configs.LLM_TEMPERATURE,
		Retry:                ai.DefaultRetryConfig,
	})

	validator := payment.NewValidator()
	handlers := api.NewHandlers(
		extractor.New(chain),
		analysis.NewAnalyzer(consensus, validator, accounts),
		statements.NewEngine(statements.HeuristicsFromConfig(), statements.NewConsensusNotes(consensus, accounts)),
		validator,
		logger,
	)

	// Step 3: Initialize the Gin router
	router := gin.Default()
	router.MaxMultipartMemory = api.MaxUploadBytes

	// Add CORS middleware - configure allowed origins for production
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	handlers.Register(router)

	// Step 4: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute, // OCR plus several completion rounds
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("port", configs.PORT).Msg("🚀 Starting server")
		for _, route := range router.Routes() {
			log.Info().Msgf("  %s %s", route.Method, route.Path)
		}

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited")
}
