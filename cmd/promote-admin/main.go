package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <email>")
		os.Exit(1)
	}

	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	users := services.NewUserService(db, events.Discard, cfg.Users)

	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		log.Fatalf("No active user found with email %s: %v", email, err)
	}

	if user.IsAdministrator() {
		fmt.Printf("%s is already an administrator\n", email)
		return
	}

	role := models.RoleAdministrator
	if _, err := users.Update(ctx, services.UserUpdate{Role: &role}, user.ID); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	fmt.Printf("Successfully promoted %s (%s) to administrator\n", email, user.UniqID)
}
