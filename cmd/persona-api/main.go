package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/PabloGalante/persona-chat/internal/adapters/http"
	"github.com/PabloGalante/persona-chat/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/persona-chat/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/persona-chat/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/persona-chat/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/persona-chat/internal/app/persona"
	"github.com/PabloGalante/persona-chat/internal/config"
	"github.com/PabloGalante/persona-chat/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	var (
		llmClient domain.PersonaLLM
		err       error
	)

	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		log.Println("[LLM] Using Vertex LLM client")
		llmClient, err = llm.NewVertexClient(ctx)
		if err != nil {
			log.Fatalf("error initializing Vertex LLM client: %v", err)
		}
	}

	var characterStore domain.CharacterStore
	var messageStore domain.MessageStore

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("PERSONA_GCP_PROJECT is required for the Firestore storage backend")
		}

		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 2 interfaces
		characterStore = fsStore
		messageStore = fsStore

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (dsn=%s)", cfg.SQLiteDSN)
		sqlStore, err := sqlitestore.NewStore(ctx, cfg.SQLiteDSN)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer sqlStore.Close()

		characterStore = sqlStore
		messageStore = sqlStore

	default:
		log.Println("[STORE] Using in-memory storage")
		characterStore = memstore.NewCharacterStore()
		messageStore = memstore.NewMessageStore()
	}

	if cfg.SeedCatalog {
		if err := persona.SeedCatalog(ctx, characterStore); err != nil {
			log.Fatalf("error seeding catalog: %v", err)
		}
	}

	svc := persona.NewService(characterStore, messageStore, llmClient)
	handler := httpadapter.NewServer(svc)

	addr := ":" + cfg.Port
	log.Println("Persona chat API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
