package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	analysis "github.com/maumchat/backend/internal/analysis/emotion"
	"github.com/maumchat/backend/internal/config"
	"github.com/maumchat/backend/internal/handler"
	"github.com/maumchat/backend/internal/service/ai"
	accountservice "github.com/maumchat/backend/internal/service/account"
	chatservice "github.com/maumchat/backend/internal/service/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
	"github.com/maumchat/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := openDatabase(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	// Trained rules are optional: without them the matcher still covers
	// the built-in positive/negative keyword sets.
	rules, err := analysis.LoadRules(cfg.Chat.RulesPath)
	if err != nil {
		log.Printf("no trained rule table at %s, using built-in keywords only: %v", cfg.Chat.RulesPath, err)
		rules = nil
	} else {
		log.Printf("loaded %d emotion rules from %s", rules.Len(), cfg.Chat.RulesPath)
	}

	var chatModel, classifierModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without AI replies - check the Ark environment variables")
			chatModel = nil
		}
		classifierModel, err = cfg.AI.NewClassifierModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize classifier model: %v", err)
			classifierModel = nil
		}
	} else {
		log.Println("Ark credentials not configured, running with rule-based classification and canned replies")
	}

	emotionSvc, err := emotionservice.NewService(ctx, classifierModel, rules, emotionservice.Config{
		Enabled: cfg.AI.EmotionLLMEnabled,
	})
	if err != nil {
		log.Fatalf("failed to initialize emotion service: %v", err)
	}
	if emotionSvc.Enabled() {
		log.Println("LLM emotion classifier enabled")
	} else {
		log.Println("emotion classification running on rules only")
	}

	var aiSvc *ai.Service
	if chatModel != nil {
		aiSvc, err = ai.NewService(ctx, chatModel, cfg.AI.StreamResponse)
		if err != nil {
			log.Printf("warning: failed to initialize AI reply service: %v", err)
			aiSvc = nil
		} else {
			log.Println("AI reply service initialized successfully")
		}
	}

	chatSvc := chatservice.NewService(store.NewSQLiteListRepo(db), emotionSvc, aiSvc, chatservice.Config{
		ContextWindow:       cfg.Chat.ContextWindow,
		RetentionLimit:      cfg.Chat.RetentionLimit,
		HistoryDefaultLimit: cfg.Chat.HistoryLimit,
	})
	accountSvc := accountservice.NewService(store.NewSQLiteUserRepo(db))

	router := handler.NewRouter(chatSvc, accountSvc, aiSvc)

	startServer(ctx, cfg.Server, router)
}

func openDatabase(cfg config.StoreConfig) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	return store.Open(cfg.Path)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("maumchat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
