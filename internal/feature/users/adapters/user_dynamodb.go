package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"users_backend/internal/feature/users/domain/entity"
	"users_backend/internal/feature/users/usecase"
)

const (
	// DefaultDynamoTable is the table holding user items.
	DefaultDynamoTable = "users"
	// DefaultDynamoEmailIndex is the global secondary index keyed by email.
	DefaultDynamoEmailIndex = "email-index"

	// emailGuardPrefix namespaces the guard items that reserve an email.
	// Guard items carry no email attribute, so neither the index nor the scan filter ever returns them.
	emailGuardPrefix = "EMAIL#"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

// DynamoDBAPI is the subset of the DynamoDB client used by userDynamoDB.
type DynamoDBAPI interface {
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// userDynamoDB stores users in a DynamoDB table keyed by id with a GSI on email.
type userDynamoDB struct {
	client     DynamoDBAPI
	table      string
	emailIndex string
}

var _ usecase.UserStore = (*userDynamoDB)(nil)

// NewUserDynamoDB creates a DynamoDB-backed UserStore. Empty names fall back to the defaults.
func NewUserDynamoDB(client DynamoDBAPI, table, emailIndex string) *userDynamoDB {
	if table == "" {
		table = DefaultDynamoTable
	}
	if emailIndex == "" {
		emailIndex = DefaultDynamoEmailIndex
	}
	return &userDynamoDB{client: client, table: table, emailIndex: emailIndex}
}

// Put writes the user item and its email guard item in one transaction.
// Both writes are conditional on the key being unused, so a taken email cancels the whole
// transaction and nothing is written.
func (r *userDynamoDB) Put(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	guard := map[string]types.AttributeValue{
		"id":      &types.AttributeValueMemberS{Value: emailGuardPrefix + u.Email},
		"user_id": &types.AttributeValueMemberS{Value: u.ID},
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && guardRejected(canceled.CancellationReasons) {
			return usecase.ErrEmailAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// guardRejected reports whether the email guard write (the second item) failed its condition.
func guardRejected(reasons []types.CancellationReason) bool {
	return len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionalCheckFailed
}

// QueryByIndex queries the email GSI, following every page.
func (r *userDynamoDB) QueryByIndex(ctx context.Context, attribute, value string) ([]entity.User, error) {
	if attribute != usecase.AttrEmail {
		return nil, fmt.Errorf("%w: %q", usecase.ErrUnsupportedAttribute, attribute)
	}
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(r.emailIndex),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})

	var users []entity.User
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s by %s: %w", r.emailIndex, attribute, err)
		}
		page, err := decodeUsers(out.Items)
		if err != nil {
			return nil, err
		}
		users = append(users, page...)
	}
	return users, nil
}

// ScanWithFilter scans the whole table with a server-side filter, following every page.
func (r *userDynamoDB) ScanWithFilter(ctx context.Context, attribute, value string) ([]entity.User, error) {
	if attribute != usecase.AttrEmail {
		return nil, fmt.Errorf("%w: %q", usecase.ErrUnsupportedAttribute, attribute)
	}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})

	var users []entity.User
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		page, err := decodeUsers(out.Items)
		if err != nil {
			return nil, err
		}
		users = append(users, page...)
	}
	return users, nil
}

// Ping checks that the table is reachable.
func (r *userDynamoDB) Ping(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}); err != nil {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}
	return nil
}

func decodeUsers(items []map[string]types.AttributeValue) ([]entity.User, error) {
	var users []entity.User
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return users, nil
}
