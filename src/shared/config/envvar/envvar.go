package envvar

import (
	"fmt"
	"os"
)

const (
	AWS_ACCESS_KEY_ID                = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY            = "AWS_SECRET_ACCESS_KEY"
	RABBITMQ_URL                     = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME              = "RABBITMQ_QUEUE_NAME"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	YOUTUBEDL_BIN_PATH               = "YOUTUBEDL_BIN_PATH"
	AUDIO_SEPARATOR_BIN_PATH         = "AUDIO_SEPARATOR_BIN_PATH"
	RVC_BIN_PATH                     = "RVC_BIN_PATH"
	FFMPEG_BIN_PATH                  = "FFMPEG_BIN_PATH"
	SOX_BIN_PATH                     = "SOX_BIN_PATH"
	WORKSPACES_ROOT_PATH             = "WORKSPACES_ROOT_PATH"
	VOICE_MODELS_ROOT_PATH           = "VOICE_MODELS_ROOT_PATH"
	WORKER_WORKING_DIR_PATH          = "WORKER_WORKING_DIR_PATH"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetOr(key string, fallback string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	return val
}
