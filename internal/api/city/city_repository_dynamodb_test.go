package city

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// MockDynamoDB is a mock implementation of DynamoDBAPI
type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

func (m *MockDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func cityItem(t *testing.T, c types.City) map[string]ddbtypes.AttributeValue {
	item, err := attributevalue.MarshalMap(c)
	require.NoError(t, err)
	return item
}

func setupDynamoRepoTest() (*DynamoDBRepository, *MockDynamoDB) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := new(MockDynamoDB)
	return NewDynamoDBRepository(client, "Cities", logger), client
}

func TestDynamoDBRepository_ListCities(t *testing.T) {
	ctx := context.Background()
	lisbon := types.City{Name: "Lisbon", CountryCode: "PT", CountryName: "Portugal", TopThingsToDo: []string{"Alfama"}}
	paris := types.City{Name: "Paris", CountryCode: "FR", CountryName: "France", TopThingsToDo: []string{"Louvre", "Seine"}}

	t.Run("follows pagination", func(t *testing.T) {
		repo, client := setupDynamoRepoTest()
		lastKey := map[string]ddbtypes.AttributeValue{"CityName": &ddbtypes.AttributeValueMemberS{Value: "Lisbon"}}

		client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return aws.ToString(in.TableName) == "Cities" && in.ExclusiveStartKey == nil
		})).Return(&dynamodb.ScanOutput{
			Items:            []map[string]ddbtypes.AttributeValue{cityItem(t, lisbon)},
			LastEvaluatedKey: lastKey,
		}, nil).Once()
		client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return in.ExclusiveStartKey != nil
		})).Return(&dynamodb.ScanOutput{
			Items: []map[string]ddbtypes.AttributeValue{cityItem(t, paris)},
		}, nil).Once()

		cities, err := repo.ListCities(ctx)

		require.NoError(t, err)
		assert.Equal(t, []types.City{lisbon, paris}, cities)
		client.AssertExpectations(t)
	})

	t.Run("scan error", func(t *testing.T) {
		repo, client := setupDynamoRepoTest()
		client.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

		_, err := repo.ListCities(ctx)

		assert.ErrorContains(t, err, "access denied")
	})
}

func TestDynamoDBRepository_FindCityByName(t *testing.T) {
	ctx := context.Background()

	t.Run("first item wins", func(t *testing.T) {
		repo, client := setupDynamoRepoTest()
		first := types.City{Name: "Paris", CountryCode: "FR", CountryName: "France"}
		second := types.City{Name: "Paris", CountryCode: "US", CountryName: "United States"}
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return aws.ToString(in.TableName) == "Cities" && in.KeyConditionExpression != nil
		})).Return(&dynamodb.QueryOutput{
			Items: []map[string]ddbtypes.AttributeValue{cityItem(t, first), cityItem(t, second)},
		}, nil).Once()

		c, err := repo.FindCityByName(ctx, "Paris")

		require.NoError(t, err)
		assert.Equal(t, "FR", c.CountryCode)
	})

	t.Run("no items", func(t *testing.T) {
		repo, client := setupDynamoRepoTest()
		client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()

		c, err := repo.FindCityByName(ctx, "Atlantis")

		assert.ErrorIs(t, err, types.ErrCityNotFound)
		assert.Nil(t, c)
	})
}

func TestDynamoDBRepository_SaveCity(t *testing.T) {
	repo, client := setupDynamoRepoTest()
	city := types.City{Name: "Lisbon", CountryCode: "PT", CountryName: "Portugal", TopThingsToDo: []string{"Alfama"}}

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		name, ok := in.Item["CityName"].(*ddbtypes.AttributeValueMemberS)
		return ok && name.Value == "Lisbon" && aws.ToString(in.TableName) == "Cities"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	require.NoError(t, repo.SaveCity(context.Background(), city))
	client.AssertExpectations(t)
}
