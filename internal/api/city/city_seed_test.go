package city

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("saves every city", func(t *testing.T) {
		repo := new(MockRepository)
		input := `[
			{"name": " Lisbon ", "country_code": "PT", "country_name": "Portugal", "top_things_to_do": ["Alfama"]},
			{"name": "Porto", "country_code": "PT", "country_name": "Portugal"}
		]`
		repo.On("SaveCity", mock.Anything, types.City{
			Name: "Lisbon", CountryCode: "PT", CountryName: "Portugal", TopThingsToDo: []string{"Alfama"},
		}).Return(nil).Once()
		repo.On("SaveCity", mock.Anything, types.City{Name: "Porto", CountryCode: "PT", CountryName: "Portugal"}).Return(nil).Once()

		n, err := Seed(ctx, repo, strings.NewReader(input), logger)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		repo.AssertExpectations(t)
	})

	t.Run("stops on save error", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("SaveCity", mock.Anything, mock.Anything).Return(errors.New("conditional check failed")).Once()

		n, err := Seed(ctx, repo, strings.NewReader(`[{"name":"Lisbon"},{"name":"Porto"}]`), logger)

		require.Error(t, err)
		assert.Equal(t, 0, n)
		repo.AssertNumberOfCalls(t, "SaveCity", 1)
	})

	t.Run("missing name", func(t *testing.T) {
		repo := new(MockRepository)

		_, err := Seed(ctx, repo, strings.NewReader(`[{"country_code":"PT"}]`), logger)

		assert.ErrorContains(t, err, "name is required")
		repo.AssertNotCalled(t, "SaveCity", mock.Anything, mock.Anything)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Seed(ctx, new(MockRepository), strings.NewReader(`{`), logger)
		assert.Error(t, err)
	})
}
