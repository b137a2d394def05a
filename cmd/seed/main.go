package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"rentbook/internal/config"
	"rentbook/internal/docstore"
	"rentbook/internal/identity"
	"rentbook/internal/models"
	"rentbook/internal/repository"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type seedProduct struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Price         float64 `yaml:"price"`
	Description   string  `yaml:"description"`
	Category      string  `yaml:"category"`
	Quantity      int     `yaml:"quantity"`
	UserID        string  `yaml:"user_id"`
	Image         string  `yaml:"image"`
	Condition     string  `yaml:"condition"`
	RentAvailable bool    `yaml:"rent_available"`
}

type SeedFile struct {
	Users    []models.User `yaml:"users"`
	Products []seedProduct `yaml:"products"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath   = flag.String("file", "configs/seed.yaml", "path to seed.yaml")
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "lifetime of printed dev tokens")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed SeedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store docstore.Store
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		store, err = docstore.NewSQLiteStore(cfg.Store.SQLitePath, &logger)
	case config.StoreFirestore:
		store, err = docstore.NewFirestoreStore(ctx, cfg.Store.Firestore.ProjectID, cfg.Store.Firestore.CredentialsFile)
	default:
		return fmt.Errorf("store driver %q does not persist, nothing to seed", cfg.Store.Driver)
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	repo := repository.New(store)

	now := time.Now().UTC()
	usersCreated, usersUpdated := 0, 0
	for i := range seed.Users {
		u := seed.Users[i]
		if u.UID == "" {
			continue
		}
		if !u.Role.Valid() {
			u.Role = models.RoleCustomer
		}
		existing, err := repo.GetUser(ctx, u.UID)
		switch {
		case err == nil:
			u.CreatedAt = existing.CreatedAt
			usersUpdated++
		case errors.Is(err, docstore.ErrNotFound):
			u.CreatedAt = now
			usersCreated++
		default:
			return fmt.Errorf("get user %s: %w", u.UID, err)
		}
		u.UpdatedAt = now
		if err = repo.SaveUser(ctx, &u); err != nil {
			return fmt.Errorf("save user %s: %w", u.UID, err)
		}
	}

	productsCreated, productsUpdated := 0, 0
	for _, sp := range seed.Products {
		if sp.ID == "" || sp.Name == "" {
			continue
		}
		p := models.Product{
			ID:            sp.ID,
			Name:          sp.Name,
			Price:         sp.Price,
			Description:   sp.Description,
			Category:      sp.Category,
			Quantity:      sp.Quantity,
			UserID:        sp.UserID,
			Image:         sp.Image,
			Condition:     sp.Condition,
			RentAvailable: sp.RentAvailable,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		existing, err := repo.GetProduct(ctx, sp.ID)
		switch {
		case err == nil:
			p.CreatedAt = existing.CreatedAt
			p.Rating = existing.Rating
			productsUpdated++
		case errors.Is(err, docstore.ErrNotFound):
			productsCreated++
		default:
			return fmt.Errorf("get product %s: %w", sp.ID, err)
		}
		if err = repo.SaveProduct(ctx, &p); err != nil {
			return fmt.Errorf("save product %s: %w", sp.Name, err)
		}
	}

	fmt.Printf("Users: created=%d updated=%d\n", usersCreated, usersUpdated)
	fmt.Printf("Products: created=%d updated=%d\n", productsCreated, productsUpdated)

	if cfg.Auth.Provider != config.AuthJWT {
		return nil
	}
	fmt.Println("Dev tokens:")
	for _, u := range seed.Users {
		if u.UID == "" {
			continue
		}
		token, err := identity.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, u.UID, *tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token for %s: %w", u.UID, err)
		}
		fmt.Printf("  %s (%s): %s\n", u.UID, u.Role, token)
	}
	return nil
}
