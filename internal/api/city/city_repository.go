package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

// Repository is the city store consumed by the web handlers.
type Repository interface {
	ListCities(ctx context.Context) ([]types.City, error)
	// FindCityByName returns types.ErrCityNotFound when no city matches.
	FindCityByName(ctx context.Context, name string) (*types.City, error)
	SaveCity(ctx context.Context, city types.City) error
}

// DBTX is the subset of *pgxpool.Pool the repository needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool DBTX
}

func NewPostgresRepository(pgpool DBTX, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresRepository) ListCities(ctx context.Context) ([]types.City, error) {
	query := `
        SELECT name, country_code, country_name, top_things_to_do
        FROM cities
        ORDER BY name
    `
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	var cities []types.City
	for rows.Next() {
		var c types.City
		if err := rows.Scan(&c.Name, &c.CountryCode, &c.CountryName, &c.TopThingsToDo); err != nil {
			return nil, fmt.Errorf("failed to scan city row: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}
	return cities, nil
}

func (r *PostgresRepository) FindCityByName(ctx context.Context, name string) (*types.City, error) {
	query := `
        SELECT name, country_code, country_name, top_things_to_do
        FROM cities
        WHERE name = $1
        LIMIT 1
    `
	var c types.City
	err := r.pgpool.QueryRow(ctx, query, name).Scan(&c.Name, &c.CountryCode, &c.CountryName, &c.TopThingsToDo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to find city: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) SaveCity(ctx context.Context, city types.City) error {
	query := `
        INSERT INTO cities (name, country_code, country_name, top_things_to_do)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE
        SET country_code = EXCLUDED.country_code,
            country_name = EXCLUDED.country_name,
            top_things_to_do = EXCLUDED.top_things_to_do,
            updated_at = NOW()
        RETURNING id
    `
	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query,
		city.Name, city.CountryCode, city.CountryName, city.TopThingsToDo,
	).Scan(&id); err != nil {
		return fmt.Errorf("failed to save city: %w", err)
	}
	r.logger.DebugContext(ctx, "City saved", slog.String("city", city.Name), slog.String("id", id.String()))
	return nil
}
