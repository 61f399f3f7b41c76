package city

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// Seed reads a JSON array of cities and upserts each into repo. It stops at
// the first city that fails to save and reports how many were written.
func Seed(ctx context.Context, repo Repository, r io.Reader, logger *slog.Logger) (int, error) {
	var cities []types.City
	if err := json.NewDecoder(r).Decode(&cities); err != nil {
		return 0, fmt.Errorf("failed to decode cities: %w", err)
	}

	saved := 0
	for i, c := range cities {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return saved, fmt.Errorf("city %d: name is required", i)
		}
		if err := repo.SaveCity(ctx, c); err != nil {
			return saved, fmt.Errorf("city %q: %w", c.Name, err)
		}
		saved++
		logger.InfoContext(ctx, "City seeded", slog.String("city", c.Name), slog.Int("things_to_do", len(c.TopThingsToDo)))
	}
	return saved, nil
}
