// Package dynamo implements the metadata repo on a DynamoDB table keyed by
// (FamilyId partition, PhotoId sort). The insert-once constraint is a
// conditional put; listing relies on native sort-key order descending.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"catphotos"
)

// Client is the subset of the DynamoDB API the repo uses.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type Repo struct {
	client Client
	table  string
}

func NewRepo(client Client, table string) (*Repo, error) {
	if table == "" {
		return nil, errors.New("new dynamo repo: table name cannot be empty")
	}
	return &Repo{client: client, table: table}, nil
}

// Insert writes the record with attribute_not_exists(PhotoId), so a second
// write for the same composite key fails with ErrConflict instead of
// overwriting. Optional fields are omitted attributes, never empty strings.
func (r *Repo) Insert(ctx context.Context, rec catphotos.PhotoRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("insert: marshal record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PhotoId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("insert %s/%s: %w", rec.FamilyID, rec.PhotoID, catphotos.ErrConflict)
		}
		return fmt.Errorf("insert %s/%s: %w", rec.FamilyID, rec.PhotoID, err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, familyID, photoID string) (catphotos.PhotoRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"FamilyId": &types.AttributeValueMemberS{Value: familyID},
			"PhotoId":  &types.AttributeValueMemberS{Value: photoID},
		},
	})
	if err != nil {
		return catphotos.PhotoRecord{}, fmt.Errorf("get %s/%s: %w", familyID, photoID, err)
	}
	if out.Item == nil {
		return catphotos.PhotoRecord{}, fmt.Errorf("get %s/%s: %w", familyID, photoID, catphotos.ErrNotFound)
	}

	var rec catphotos.PhotoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return catphotos.PhotoRecord{}, fmt.Errorf("get %s/%s: unmarshal: %w", familyID, photoID, err)
	}
	return rec, nil
}

// ListByFamily queries the whole partition newest-insertion-first
// (ScanIndexForward false walks the sort key descending).
func (r *Repo) ListByFamily(ctx context.Context, familyID string) ([]catphotos.PhotoRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("FamilyId = :family_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":family_id": &types.AttributeValueMemberS{Value: familyID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", familyID, err)
	}

	recs := make([]catphotos.PhotoRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, fmt.Errorf("list %s: unmarshal: %w", familyID, err)
	}
	return recs, nil
}
