package application

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/cover-gen-be/src/shared/config"
	"github.com/veedubyou/cover-gen-be/src/shared/config/dev"
	"github.com/veedubyou/cover-gen-be/src/shared/config/envvar"
	"github.com/veedubyou/cover-gen-be/src/shared/config/prod"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	jobstorage "github.com/veedubyou/cover-gen-be/src/shared/job/storage"
	dynamolib "github.com/veedubyou/cover-gen-be/src/shared/lib/dynamo"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/env"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
	"github.com/veedubyou/cover-gen-be/src/shared/cloud_storage/entity"
	filestore "github.com/veedubyou/cover-gen-be/src/worker/internal/application/cloud_storage/store"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/convert"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/download"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/mixdown"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/retrieve"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/separate"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/soxfx"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/one_click"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/run_stage"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/worker"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/storagepath"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/working_dir"
)

func ensureOk(err error) {
	if err != nil {
		panic(err)
	}
}

type App struct {
	worker worker.QueueWorker
}

func NewApp() App {
	consumerConn, err := amqp091.Dial(rabbitURL())
	ensureOk(err)

	return App{
		worker: newWorker(consumerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func newWorker(consumerConn *amqp091.Connection) worker.QueueWorker {
	jobStore := newJobStore()
	orchestrator := newOrchestrator()

	jobRouter := job_router.NewJobRouter(
		jobStore,
		one_click.NewJobHandler(jobStore, orchestrator, newFileStore(), newPathGenerator()),
		run_stage.NewJobHandler(jobStore, orchestrator))

	queueWorker, err := worker.NewQueueWorkerFromConnection(
		consumerConn,
		queueName(),
		jobRouter)
	ensureOk(err)
	return queueWorker
}

func newOrchestrator() *pipeline.Orchestrator {
	workspaceStore, err := workspacestore.NewStore(workspacesRootPath())
	ensureOk(err)

	modelStore, err := voicemodelstore.NewStore(voiceModelsRootPath())
	ensureOk(err)

	return pipeline.NewOrchestrator(
		workspaceStore,
		pipeline.NewCache(workspaceStore),
		newRunnerMap(modelStore),
		modelStore)
}

func newRunnerMap(modelStore *voicemodelstore.Store) pipeline.RunnerMap {
	binaryExecutor := executor.BinaryFileExecutor{}

	workingDir, err := working_dir.NewWorkingDir(workerWorkingDirPath())
	ensureOk(err)

	separator := separate.NewSeparator(audioSeparatorBinPath(), workingDir, binaryExecutor)
	sox := soxfx.NewSox(soxBinPath(), binaryExecutor)

	youtubedler := download.NewYoutubeDLer(youtubedlBinPath(), binaryExecutor)
	selectdler := download.NewSelectDLer(youtubedler, download.NewLocalFileDLer())

	return pipeline.RunnerMap{
		pipeline.StageRetrieve:           retrieve.NewRunner(selectdler),
		pipeline.StageSeparateVocals:     separate.NewVocalsRunner(separator),
		pipeline.StageSeparateMainBackup: separate.NewMainBackupRunner(separator),
		pipeline.StageDereverb:           separate.NewDereverbRunner(separator, ffmpegBinPath(), binaryExecutor),
		pipeline.StageConvertVocals:      convert.NewRunner(rvcBinPath(), workingDir, binaryExecutor, modelStore),
		pipeline.StagePostprocess:        soxfx.NewPostprocessRunner(sox),
		pipeline.StagePitchShift:         soxfx.NewPitchShiftRunner(sox),
		pipeline.StageMix:                mixdown.NewRunner(ffmpegBinPath(), binaryExecutor),
	}
}

func newJobStore() jobentity.Store {
	return jobstorage.NewDB(dynamolib.NewDynamoDBWrapper(newDynamoDB()))
}

func newDynamoDB() *dynamo.DB {
	dbSession := session.Must(session.NewSession())

	switch env.Get() {
	case env.Production:
		awsConfig := aws.NewConfig().
			WithCredentials(credentials.NewEnvCredentials()).
			WithRegion(prod.DynamoDBRegion)
		return dynamo.New(dbSession, awsConfig)

	case env.Development:
		awsConfig := aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(dev.DynamoAccessKeyID, dev.DynamoSecretAccessKey, "")).
			WithEndpoint(dev.DynamoDBHost).
			WithRegion(dev.DynamoDBRegion)
		return dynamo.New(dbSession, awsConfig)

	default:
		panic("Unrecognized environment")
	}
}

func newFileStore() entity.FileStore {
	switch env.Get() {
	case env.Production:
		jsonKey := envvar.MustGet(envvar.GOOGLE_CLOUD_KEY)
		fileStore, err := filestore.NewGoogleFileStore(jsonKey, prod.GoogleStorageHost)
		ensureOk(err)
		return fileStore

	case env.Development:
		return filestore.NoopFileStore{}

	default:
		panic("Unrecognized environment")
	}
}

func newPathGenerator() storagepath.Generator {
	switch env.Get() {
	case env.Production:
		return storagepath.Generator{
			Bucket: envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
		}

	case env.Development:
		return storagepath.Generator{
			Bucket: "cover-gen-dev",
		}

	default:
		panic("Unrecognized environment")
	}
}

func rabbitURL() string {
	switch env.Get() {
	case env.Production:
		return envvar.MustGet(envvar.RABBITMQ_URL)
	case env.Development:
		return dev.RabbitMQHost

	default:
		panic("Unrecognized environment")
	}
}

func queueName() string {
	switch env.Get() {
	case env.Production:
		return envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME)
	case env.Development:
		return dev.RabbitMQQueueName

	default:
		panic("Unrecognized environment")
	}
}

func workspacesRootPath() string {
	switch env.Get() {
	case env.Production:
		return envvar.MustGet(envvar.WORKSPACES_ROOT_PATH)
	case env.Development:
		return dev.WorkspacesRootPath()

	default:
		panic("Unrecognized environment")
	}
}

func voiceModelsRootPath() string {
	switch env.Get() {
	case env.Production:
		return envvar.MustGet(envvar.VOICE_MODELS_ROOT_PATH)
	case env.Development:
		return dev.VoiceModelsRootPath()

	default:
		panic("Unrecognized environment")
	}
}

func workerWorkingDirPath() string {
	switch env.Get() {
	case env.Production:
		return envvar.MustGet(envvar.WORKER_WORKING_DIR_PATH)
	case env.Development:
		return dev.WorkerWorkingDirPath()

	default:
		panic("Unrecognized environment")
	}
}

func youtubedlBinPath() string {
	if binPath := envvar.GetOr(envvar.YOUTUBEDL_BIN_PATH, ""); binPath != "" {
		return binPath
	}

	return config.YoutubeDLPath()
}

func audioSeparatorBinPath() string {
	if binPath := envvar.GetOr(envvar.AUDIO_SEPARATOR_BIN_PATH, ""); binPath != "" {
		return binPath
	}

	return config.AudioSeparatorPath()
}

func rvcBinPath() string {
	if binPath := envvar.GetOr(envvar.RVC_BIN_PATH, ""); binPath != "" {
		return binPath
	}

	return config.RVCPath()
}

func ffmpegBinPath() string {
	if binPath := envvar.GetOr(envvar.FFMPEG_BIN_PATH, ""); binPath != "" {
		return binPath
	}

	return config.FFmpegPath()
}

func soxBinPath() string {
	if binPath := envvar.GetOr(envvar.SOX_BIN_PATH, ""); binPath != "" {
		return binPath
	}

	return config.SoxPath()
}
