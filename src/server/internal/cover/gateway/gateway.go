package covergateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/usecase"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/cover-gen-be/src/server/internal/lib/request"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
)

type Gateway struct {
	usecase coverusecase.Usecase
}

func NewGateway(usecase coverusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateOneClickJob(c echo.Context, songID string) error {
	ctx := request.Context(c)

	// bind over the defaults so omitted knobs keep sensible values
	options := pipeline.DefaultOptions()
	err := c.Bind(&options)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to cover options")
		apiErr := api.CommitError(err,
			covererrors.BadRequestDataCode,
			"The cover options received were malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	job, apiErr := g.usecase.CreateOneClickJob(ctx, songID, options)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, job)
}

func (g Gateway) CreateRunStageJob(c echo.Context, songID string, stage string) error {
	ctx := request.Context(c)

	options := pipeline.DefaultOptions()
	err := c.Bind(&options)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to stage options")
		apiErr := api.CommitError(err,
			covererrors.BadRequestDataCode,
			"The stage options received were malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	job, apiErr := g.usecase.CreateRunStageJob(ctx, songID, stage, options)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, job)
}

func (g Gateway) GetJob(c echo.Context, jobID string) error {
	ctx := request.Context(c)

	job, apiErr := g.usecase.GetJob(ctx, jobID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get job")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, job)
}

func (g Gateway) ListJobsForSong(c echo.Context, songID string) error {
	ctx := request.Context(c)

	jobs, apiErr := g.usecase.ListJobsForSong(ctx, songID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to list jobs")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, jobs)
}

func (g Gateway) ListStages(c echo.Context) error {
	return c.JSON(http.StatusOK, pipeline.AllStages())
}
