package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"exercisehub/internal/app"
	"exercisehub/internal/config"
	"exercisehub/internal/model"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer a.Close(ctx)

	maxSubmissions, _ := a.Template.Settings().Get("maxNumSubmissions")
	maxSubmissions.Value = 3.0
	maxSubmissions.Level = model.LevelPresentation

	assessment, _ := a.Template.Settings().Get("assessment")
	assessment.Value = "self"
	assessment.Level = model.LevelPresentation

	presentation := model.Presentation{
		ID:        "demo-presentation",
		Title:     "Intro to Web Components",
		Settings:  model.Settings{maxSubmissions, assessment},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := a.Validator.ValidateAll(presentation.Settings); err != nil {
		log.Fatalf("Invalid presentation settings: %v", err)
	}

	if err := a.Presentations.Upsert(ctx, &presentation); err != nil {
		log.Fatalf("Failed to upsert presentation: %v", err)
	}

	fmt.Printf("Successfully seeded presentation '%s' (%s)\n", presentation.Title, presentation.ID)
}
