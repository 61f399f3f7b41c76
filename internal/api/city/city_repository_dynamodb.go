package city

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

var _ Repository = (*DynamoDBRepository)(nil)

// DynamoDBAPI is the part of *dynamodb.Client used by the repository.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBRepository reads cities from a table keyed by CityName.
type DynamoDBRepository struct {
	logger *slog.Logger
	client DynamoDBAPI
	table  string
}

func NewDynamoDBRepository(client DynamoDBAPI, table string, logger *slog.Logger) *DynamoDBRepository {
	return &DynamoDBRepository{
		logger: logger,
		client: client,
		table:  table,
	}
}

func (r *DynamoDBRepository) ListCities(ctx context.Context) ([]types.City, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})

	var cities []types.City
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.table, err)
		}
		var batch []types.City
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cities: %w", err)
		}
		cities = append(cities, batch...)
	}
	return cities, nil
}

func (r *DynamoDBRepository) FindCityByName(ctx context.Context, name string) (*types.City, error) {
	keyCond := expression.Key("CityName").Equal(expression.Value(name))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	if len(out.Items) == 0 {
		return nil, types.ErrCityNotFound
	}

	var c types.City
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal city: %w", err)
	}
	return &c, nil
}

func (r *DynamoDBRepository) SaveCity(ctx context.Context, city types.City) error {
	item, err := attributevalue.MarshalMap(city)
	if err != nil {
		return fmt.Errorf("failed to marshal city: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put city: %w", err)
	}
	r.logger.DebugContext(ctx, "City saved", slog.String("city", city.Name), slog.String("table", r.table))
	return nil
}
