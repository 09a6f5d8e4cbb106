package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	dynamoAttrPK        = "PK"
	dynamoAttrData      = "state_data"
	dynamoAttrUpdatedAt = "updated_at"
	dynamoAttrTTL       = "ttl"
)

// dynamodbAPI is the minimal DynamoDB interface required by StateDynamo.
// *dynamodb.Client satisfies it.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// StateDynamo stores conversation states in a DynamoDB table keyed by PK = "CHAT#<id>".
// The table's TTL attribute is "ttl"; DynamoDB deletes lazily, so Get also checks it.
type StateDynamo struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewStateDynamo creates a DynamoDB-backed state store
func NewStateDynamo(api dynamodbAPI, tableName string, ttl time.Duration) (*StateDynamo, error) {
	if api == nil {
		return nil, errors.New("repository: dynamodb api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &StateDynamo{api: api, tableName: tableName, ttl: ttl, now: time.Now}, nil
}

func chatPK(conversationID int64) string {
	return "CHAT#" + strconv.FormatInt(conversationID, 10)
}

func (s *StateDynamo) key(conversationID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoAttrPK: &types.AttributeValueMemberS{Value: chatPK(conversationID)},
	}
}

// Get retrieves the record for a conversation
func (s *StateDynamo) Get(ctx context.Context, conversationID int64) (*state.Record, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: get conversation state: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, entity.ErrStateNotFound
	}

	expiresAt, err := numberAttr(out.Item, dynamoAttrTTL)
	if err == nil && expiresAt <= s.now().Unix() {
		return nil, entity.ErrStateNotFound
	}

	data, err := stringAttr(out.Item, dynamoAttrData)
	if err != nil {
		// Manager treats undecodable payloads as absent
		data = ""
	}

	record := &state.Record{
		ConversationID: conversationID,
		Data:           []byte(data),
	}
	if updated, err := stringAttr(out.Item, dynamoAttrUpdatedAt); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			record.UpdatedAt = ts
		}
	}

	return record, nil
}

// Set creates or replaces the record for a conversation
func (s *StateDynamo) Set(ctx context.Context, record *state.Record) error {
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	item := s.key(record.ConversationID)
	item[dynamoAttrData] = &types.AttributeValueMemberS{Value: string(record.Data)}
	item[dynamoAttrUpdatedAt] = &types.AttributeValueMemberS{Value: updatedAt.UTC().Format(time.RFC3339Nano)}
	item[dynamoAttrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(updatedAt.Add(s.ttl).Unix(), 10)}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: put conversation state: %w", err)
	}
	return nil
}

// Delete removes the record for a conversation
func (s *StateDynamo) Delete(ctx context.Context, conversationID int64) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(conversationID),
	})
	if err != nil {
		return fmt.Errorf("repository: delete conversation state: %w", err)
	}
	return nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q missing or not a string", name)
	}
	return v.Value, nil
}

func numberAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q missing or not a number", name)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return n, nil
}
