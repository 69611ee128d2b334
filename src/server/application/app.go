package application

import (
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	covergateway "github.com/veedubyou/cover-gen-be/src/server/internal/cover/gateway"
	coverusecase "github.com/veedubyou/cover-gen-be/src/server/internal/cover/usecase"
	voicemodelgateway "github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/gateway"
	voicemodelusecase "github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/usecase"
	workspacegateway "github.com/veedubyou/cover-gen-be/src/server/internal/workspace/gateway"
	workspaceusecase "github.com/veedubyou/cover-gen-be/src/server/internal/workspace/usecase"
	"github.com/veedubyou/cover-gen-be/src/shared/config"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	jobstorage "github.com/veedubyou/cover-gen-be/src/shared/job/storage"
	dynamolib "github.com/veedubyou/cover-gen-be/src/shared/lib/dynamo"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/rabbitmq"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo *echo.Echo
	port string
}

type Config struct {
	DynamoConfig        config.Dynamo
	RabbitMQURL         string
	RabbitMQQueueName   string
	CORSAllowedOrigins  []string
	WorkspacesRootPath  string
	VoiceModelsRootPath string
	Port                string
	Log                 bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	dynamoDB := makeDynamoDB(config.DynamoConfig)
	rabbitmqPublisher := makeRabbitMQPublisher(config)
	jobDB := jobstorage.NewDB(dynamoDB)

	coverGateway := makeCoverGateway(jobDB, rabbitmqPublisher)
	workspaceGateway := makeWorkspaceGateway(config)
	voiceModelGateway := makeVoiceModelGateway(config, jobDB)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// cover job routes
	handleRoute(POST, "/songs/:id/cover", func(c echo.Context) error {
		songID := c.Param("id")
		return coverGateway.CreateOneClickJob(c, songID)
	})
	handleRoute(POST, "/songs/:id/stages/:stage", func(c echo.Context) error {
		songID := c.Param("id")
		stage := c.Param("stage")
		return coverGateway.CreateRunStageJob(c, songID, stage)
	})
	handleRoute(GET, "/jobs/:id", func(c echo.Context) error {
		jobID := c.Param("id")
		return coverGateway.GetJob(c, jobID)
	})
	handleRoute(GET, "/songs/:id/jobs", func(c echo.Context) error {
		songID := c.Param("id")
		return coverGateway.ListJobsForSong(c, songID)
	})
	handleRoute(GET, "/stages", coverGateway.ListStages)

	// workspace routes
	handleRoute(GET, "/workspaces", workspaceGateway.ListWorkspaces)
	handleRoute(GET, "/workspaces/:id/artifacts", func(c echo.Context) error {
		songID := c.Param("id")
		return workspaceGateway.ListArtifacts(c, songID)
	})
	handleRoute(POST, "/workspaces/delete-requests", workspaceGateway.StageDeletion)
	handleRoute(POST, "/workspaces/delete-requests/:token/confirm", func(c echo.Context) error {
		token := c.Param("token")
		return workspaceGateway.ConfirmDeletion(c, token)
	})
	handleRoute(POST, "/workspaces/delete-requests/:token/cancel", func(c echo.Context) error {
		token := c.Param("token")
		return workspaceGateway.CancelDeletion(c, token)
	})

	// voice model routes
	handleRoute(GET, "/voice-models", voiceModelGateway.ListModels)
	handleRoute(POST, "/voice-models", voiceModelGateway.InstallModel)
	handleRoute(POST, "/voice-models/delete-requests", voiceModelGateway.StageDeletion)
	handleRoute(POST, "/voice-models/delete-requests/:token/confirm", func(c echo.Context) error {
		token := c.Param("token")
		return voiceModelGateway.ConfirmDeletion(c, token)
	})
	handleRoute(POST, "/voice-models/delete-requests/:token/cancel", func(c echo.Context) error {
		token := c.Param("token")
		return voiceModelGateway.CancelDeletion(c, token)
	})

	return App{
		echo: e,
		port: config.Port,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRabbitMQPublisher(config Config) rabbitmq.Publisher {
	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func makeCoverGateway(jobDB jobstorage.DB, publisher rabbitmq.Publisher) covergateway.Gateway {
	coverUsecase := coverusecase.NewUsecase(jobDB, publisher)
	return covergateway.NewGateway(coverUsecase)
}

func makeWorkspaceGateway(config Config) workspacegateway.Gateway {
	workspaceStore, err := workspacestore.NewStore(config.WorkspacesRootPath)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the workspace store"))
	}

	workspaceUsecase := workspaceusecase.NewUsecase(workspaceStore, guard.NewGuard())
	return workspacegateway.NewGateway(workspaceUsecase)
}

func makeVoiceModelGateway(config Config, jobDB jobstorage.DB) voicemodelgateway.Gateway {
	modelStore, err := voicemodelstore.NewStore(config.VoiceModelsRootPath)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the voice model store"))
	}

	voiceModelUsecase := voicemodelusecase.NewUsecase(modelStore, jobDB, guard.NewGuard())
	return voicemodelgateway.NewGateway(voiceModelUsecase)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
