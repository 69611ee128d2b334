package jobstorage

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
	dynamolib "github.com/veedubyou/cover-gen-be/src/shared/lib/dynamo"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
)

const (
	idKey     = "id"
	songIDKey = "song_id"
	statusKey = "job_status"
)

var _ dynamo.ItemUnmarshaler = &dbJob{}

type dbJob map[string]any

func (d *dbJob) UnmarshalDynamoItem(dynamoItem map[string]*dynamodb.AttributeValue) error {
	if err := dynamolib.ValidateStringField(dynamoItem, idKey); err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to validate id field")
	}

	plainMap := map[string]any{}
	err := dynamo.UnmarshalItem(dynamoItem, &plainMap)
	if err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to unmarshal dynamo item")
	}

	*d = plainMap

	return nil
}
