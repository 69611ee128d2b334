package dev

import (
	"path"

	"github.com/veedubyou/cover-gen-be/src/shared/config"
	"github.com/veedubyou/cover-gen-be/src/shared/config/local"
)

// DynamoDB
const (
	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "localhost"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

// RabbitMQ
const (
	RabbitMQHost      = "amqp://localhost:5672"
	RabbitMQQueueName = "cover-gen-jobs-dev"
)

// Local audio storage
func WorkspacesRootPath() string {
	return path.Join(local.ProjectRoot(), "/src/worker/wd/workspaces")
}

func VoiceModelsRootPath() string {
	return path.Join(local.ProjectRoot(), "/src/worker/wd/voice-models")
}

func WorkerWorkingDirPath() string {
	return path.Join(local.ProjectRoot(), "/src/worker/wd/scratch")
}
