package main

import (
	"strings"

	"github.com/veedubyou/cover-gen-be/src/server/application"
	"github.com/veedubyou/cover-gen-be/src/shared/config"
	"github.com/veedubyou/cover-gen-be/src/shared/config/dev"
	"github.com/veedubyou/cover-gen-be/src/shared/config/envvar"
	"github.com/veedubyou/cover-gen-be/src/shared/config/prod"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:         envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:   envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CORSAllowedOrigins:  allowedOrigins,
			WorkspacesRootPath:  envvar.MustGet(envvar.WORKSPACES_ROOT_PATH),
			VoiceModelsRootPath: envvar.MustGet(envvar.VOICE_MODELS_ROOT_PATH),
			Port:                ":5000",
			Log:                 true,
		}
	case env.Development:
		appConfig = application.Config{
			DynamoConfig:        dev.DynamoConfig,
			RabbitMQURL:         dev.RabbitMQHost,
			RabbitMQQueueName:   dev.RabbitMQQueueName,
			CORSAllowedOrigins:  []string{"*"},
			WorkspacesRootPath:  dev.WorkspacesRootPath(),
			VoiceModelsRootPath: dev.VoiceModelsRootPath(),
			Port:                ":5000",
			Log:                 true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
