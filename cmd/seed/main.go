// Seeds a configured postgres database with a few demonstration workflows.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowforge/internal/config"
	"flowforge/internal/logging"
	"flowforge/internal/repository"
	"flowforge/pkg/models"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level).Named("seed")

	if !cfg.HasDatabase() {
		log.Fatal("Seeding requires a configured database (db.host)")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Skip workflows that already exist by name.
	existing, err := store.ListWorkflows(ctx)
	if err != nil {
		log.Fatalf("Failed to list existing workflows: %v", err)
	}
	existingNames := make(map[string]bool)
	for _, w := range existing {
		existingNames[w.Name] = true
	}

	for _, wf := range demoWorkflows() {
		if existingNames[wf.Name] {
			logger.Info("skipping existing workflow", "name", wf.Name)
			continue
		}
		if err := store.CreateWorkflow(ctx, wf); err != nil {
			log.Printf("Failed to create workflow %s: %v", wf.Name, err)
			continue
		}
		logger.Info("seeded workflow", "name", wf.Name, "id", wf.ID)
	}
	logger.Info("seeding complete")
}

func demoWorkflows() []*models.Workflow {
	now := time.Now()

	greet := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Greeting",
		Description: "Sets a greeting field on the trigger item.",
		Status:      models.WorkflowStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Nodes: []models.Node{
			{ID: "trigger", Name: "Manual Trigger", Type: "manualTrigger", Position: models.Position{X: 100, Y: 200}},
			{ID: "set", Name: "Set Greeting", Type: "set", Position: models.Position{X: 340, Y: 200},
				Parameters: map[string]any{
					"values": map[string]any{"greeting": "hello"},
				}},
		},
		Connections: []models.Connection{
			{ID: uuid.New().String(), SourceNode: "trigger", TargetNode: "set"},
		},
	}

	statusCheck := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Status Check",
		Description: "Fetches a URL and routes on the response status code.",
		Status:      models.WorkflowStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Nodes: []models.Node{
			{ID: "trigger", Name: "Manual Trigger", Type: "manualTrigger", Position: models.Position{X: 100, Y: 200}},
			{ID: "fetch", Name: "Fetch Status", Type: "httpRequest", Position: models.Position{X: 340, Y: 200},
				Parameters: map[string]any{
					"url":    "https://httpbin.org/status/200",
					"method": "GET",
				}},
			{ID: "check", Name: "Is OK", Type: "if", Position: models.Position{X: 580, Y: 200},
				Parameters: map[string]any{
					"expression": "statusCode == 200",
				}},
			{ID: "ok", Name: "Mark Healthy", Type: "set", Position: models.Position{X: 820, Y: 120},
				Parameters: map[string]any{
					"values": map[string]any{"healthy": true},
				}},
			{ID: "bad", Name: "Mark Unhealthy", Type: "set", Position: models.Position{X: 820, Y: 280},
				Parameters: map[string]any{
					"values": map[string]any{"healthy": false},
				}},
		},
		Connections: []models.Connection{
			{ID: uuid.New().String(), SourceNode: "trigger", TargetNode: "fetch"},
			{ID: uuid.New().String(), SourceNode: "fetch", TargetNode: "check"},
			{ID: uuid.New().String(), SourceNode: "check", SourceOutput: "true", TargetNode: "ok"},
			{ID: uuid.New().String(), SourceNode: "check", SourceOutput: "false", TargetNode: "bad"},
		},
	}

	summarizer := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Summarizer",
		Description: "Summarizes the trigger payload text with the AI service and emails the result.",
		Status:      models.WorkflowStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		Nodes: []models.Node{
			{ID: "trigger", Name: "Manual Trigger", Type: "manualTrigger", Position: models.Position{X: 100, Y: 200}},
			{ID: "summarize", Name: "Summarize Text", Type: "aiText", Position: models.Position{X: 340, Y: 200},
				Parameters: map[string]any{
					"prompt": "Summarize the following text: {{text}}",
				}},
			{ID: "email", Name: "Email Summary", Type: "emailSend", Position: models.Position{X: 580, Y: 200},
				Parameters: map[string]any{
					"to":      "team@example.com",
					"subject": "Daily summary",
					"body":    "{{aiResponse}}",
				}},
		},
		Connections: []models.Connection{
			{ID: uuid.New().String(), SourceNode: "trigger", TargetNode: "summarize"},
			{ID: uuid.New().String(), SourceNode: "summarize", TargetNode: "email"},
		},
	}

	return []*models.Workflow{greet, statusCheck, summarizer}
}
