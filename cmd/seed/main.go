package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/swapyard/swapyard-api/config"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@swapyard.dev"
	password := "password123"
	name := "Demo Seller"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name, verified)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name
		RETURNING id
	`, email, hash, name).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", id, email, name, password)

	listings := []struct {
		name, description, category string
		price                       float64
	}{
		{"Road bike", "Lightly used aluminium road bike", "Sports & Outdoors", 220},
		{"Espresso machine", "Single boiler, recently descaled", "Electronics", 95},
		{"Bookshelf", "Solid pine, 5 shelves", "Home & Kitchen", 40},
	}
	for _, l := range listings {
		var pid string
		err := db.QueryRow(`
			INSERT INTO products (owner_id, name, description, category, price, purchasing_date, images)
			VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb)
			RETURNING id
		`, id, l.name, l.description, l.category, l.price, time.Now().AddDate(-1, 0, 0)).Scan(&pid)
		if err != nil {
			log.Fatalf("failed to seed product %q: %v", l.name, err)
		}
		fmt.Printf("seeded product: id=%s name=%s\n", pid, l.name)
	}
}
