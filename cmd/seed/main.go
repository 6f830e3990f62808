package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kotpos/api/internal/config"
	"github.com/kotpos/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

type demoUser struct {
	username, password  string
	email               string
	firstName, lastName string
	role                string
}

var demoUsers = []demoUser{
	{"admin", "admin123", "admin@restaurant.com", "John", "Admin", enum.RoleAdmin},
	{"cashier", "cashier123", "cashier@restaurant.com", "Jane", "Cashier", enum.RoleRestaurantCashier},
	{"storekeeper", "store123", "storekeeper@restaurant.com", "Bob", "Store", enum.RoleStoreKeeper},
	{"officer", "officer123", "officer@restaurant.com", "Alice", "Officer", enum.RoleAuthorisingOfficer},
	{"barman", "bar123", "barman@restaurant.com", "Mike", "Bar", enum.RoleBarman},
}

type sampleIngredient struct {
	name, unit                string
	stock, threshold, costPer string
}

var sampleIngredients = []sampleIngredient{
	{"Rice", "kg", "50.000", "10.000", "60.00"},
	{"Chicken", "kg", "15.000", "20.000", "250.00"},
	{"Carrot", "kg", "8.000", "5.000", "80.00"},
	{"Onion", "kg", "25.000", "10.000", "40.00"},
	{"Whiskey", "l", "10.000", "5.000", "2500.00"},
}

type sampleMenuItem struct {
	name, description string
	price             string
	category          string
	// ingredient name -> quantity per portion
	recipe map[string]string
}

var sampleMenu = []sampleMenuItem{
	{"Chicken Fried Rice", "Wok fried rice with chicken and vegetables", "180.00", "restaurant",
		map[string]string{"Rice": "0.200", "Chicken": "0.150", "Carrot": "0.050", "Onion": "0.050"}},
	{"Vegetable Soup", "Carrot and onion broth", "90.00", "restaurant",
		map[string]string{"Carrot": "0.100", "Onion": "0.050"}},
	{"Whiskey Peg", "60 ml pour", "350.00", "bar",
		map[string]string{"Whiskey": "0.060"}},
}

func main() {
	configPath := flag.String("config", "", "Config file path (YAML)")
	skipMenu := flag.Bool("skip-menu", false, "Seed users and ingredients only")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("connect to database", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fatal("ping database", err)
	}
	slog.Info("connected to database")

	// Seed in a transaction (all demo data or none)
	tx, err := pool.Begin(ctx)
	if err != nil {
		fatal("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, u := range demoUsers {
		if err := seedUser(ctx, tx, u); err != nil {
			fatal("seed user", err)
		}
	}

	ingredientIDs := make(map[string]uuid.UUID, len(sampleIngredients))
	for _, ing := range sampleIngredients {
		id, err := seedIngredient(ctx, tx, ing)
		if err != nil {
			fatal("seed ingredient", err)
		}
		ingredientIDs[ing.name] = id
	}

	if !*skipMenu {
		for _, item := range sampleMenu {
			if err := seedMenuItem(ctx, tx, item, ingredientIDs); err != nil {
				fatal("seed menu item", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		fatal("commit", err)
	}
	slog.Info("seed completed successfully")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// seedUser creates a demo account if the username is free.
func seedUser(ctx context.Context, tx pgx.Tx, u demoUser) error {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, u.username).Scan(&existingID)
	if err == nil {
		slog.Info("user already exists, skipping", "username", u.username, "id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check user %s: %w", u.username, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, role, is_active, is_demo, password_hash)
		VALUES ($1, $2, $3, $4, $5, true, true, $6)
		RETURNING id
	`, u.username, u.email, u.firstName, u.lastName, u.role, string(hashed)).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.username, err)
	}

	slog.Info("created demo user", "username", u.username, "role", u.role, "id", id)
	return nil
}

// seedIngredient inserts the ingredient or returns the id of the existing row.
func seedIngredient(ctx context.Context, tx pgx.Tx, ing sampleIngredient) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO ingredients (name, unit, current_stock, minimum_threshold, cost_per_unit)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, ing.name, ing.unit, ing.stock, ing.threshold, ing.costPer).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert ingredient %s: %w", ing.name, err)
	}
	slog.Info("ingredient ready", "name", ing.name, "id", id)
	return id, nil
}

// seedMenuItem creates the menu item and its recipe unless an item with the
// same name already exists.
func seedMenuItem(ctx context.Context, tx pgx.Tx, item sampleMenuItem, ingredientIDs map[string]uuid.UUID) error {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM menu_items WHERE name = $1 LIMIT 1`, item.name).Scan(&existingID)
	if err == nil {
		slog.Info("menu item already exists, skipping", "name", item.name, "id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check menu item %s: %w", item.name, err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, price, category, is_active)
		VALUES ($1, $2, $3::numeric, $4::kot_type, true)
		RETURNING id
	`, item.name, item.description, item.price, item.category).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert menu item %s: %w", item.name, err)
	}

	for name, qty := range item.recipe {
		ingredientID, ok := ingredientIDs[name]
		if !ok {
			return fmt.Errorf("menu item %s: unknown ingredient %s", item.name, name)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO menu_item_ingredients (menu_item_id, ingredient_id, quantity)
			VALUES ($1, $2, $3::numeric)
		`, id, ingredientID, qty)
		if err != nil {
			return fmt.Errorf("insert recipe line %s/%s: %w", item.name, name, err)
		}
	}

	slog.Info("created menu item", "name", item.name, "category", item.category, "id", id)
	return nil
}
