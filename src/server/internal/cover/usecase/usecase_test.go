package coverusecase_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/usecase"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/shared/integration_test/dummy"
)

var _ = Describe("CoverUsecase", func() {
	var (
		jobStore  *dummy.JobStore
		publisher *dummy.Publisher
		usecase   coverusecase.Usecase

		songID  string
		options pipeline.Options
	)

	BeforeEach(func() {
		songID = "cool-jamz"

		options = pipeline.DefaultOptions()
		options.Retrieve.Source = "https://www.youtube.com/watch?v=jams"
		options.ConvertVocals.VoiceModel = "test-voice"

		jobStore = dummy.NewDummyJobStore()
		publisher = dummy.NewDummyPublisher()
		usecase = coverusecase.NewUsecase(jobStore, publisher)
	})

	Describe("CreateOneClickJob", func() {
		Describe("Happy path", func() {
			var job jobentity.Job

			BeforeEach(func() {
				var apiErr *api.Error
				job, apiErr = usecase.CreateOneClickJob(context.Background(), songID, options)
				Expect(apiErr).To(BeNil())
			})

			It("creates the job in requested status", func() {
				Expect(job.GetID()).NotTo(BeEmpty())
				Expect(job.Defined.SongID).To(Equal(songID))
				Expect(job.Defined.Type).To(Equal(jobentity.OneClickJobType))
				Expect(job.Defined.Status).To(Equal(jobentity.RequestedStatus))
			})

			It("queues a message carrying only the job ID", func() {
				Expect(publisher.Published).To(HaveLen(1))

				message := publisher.Published[0]
				Expect(message.Type).To(Equal(coverusecase.OneClickMessageType))

				body := map[string]string{}
				Expect(json.Unmarshal(message.Body, &body)).To(Succeed())
				Expect(body).To(Equal(map[string]string{"job_id": job.GetID()}))
			})
		})

		Describe("Unusable song ID", func() {
			It("rejects the request", func() {
				_, apiErr := usecase.CreateOneClickJob(context.Background(), "../escape", options)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(covererrors.BadRequestDataCode))
				Expect(publisher.Published).To(BeEmpty())
			})
		})

		Describe("Invalid options", func() {
			It("rejects the request", func() {
				options.Retrieve.Source = ""
				_, apiErr := usecase.CreateOneClickJob(context.Background(), songID, options)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(covererrors.InvalidOptionsCode))
				Expect(publisher.Published).To(BeEmpty())
			})
		})

		Describe("The queue is unreachable", func() {
			BeforeEach(func() {
				publisher.Unavailable = true
			})

			It("fails and marks the job as errored", func() {
				_, apiErr := usecase.CreateOneClickJob(context.Background(), songID, options)
				Expect(apiErr).NotTo(BeNil())

				jobs, err := jobStore.ListJobsForSong(context.Background(), songID)
				Expect(err).NotTo(HaveOccurred())
				Expect(jobs).To(HaveLen(1))
				Expect(jobs[0].Defined.Status).To(Equal(jobentity.ErrorStatus))
			})
		})
	})

	Describe("CreateRunStageJob", func() {
		Describe("Happy path", func() {
			It("creates the stage job and queues it", func() {
				job, apiErr := usecase.CreateRunStageJob(context.Background(), songID, "dereverb", options)
				Expect(apiErr).To(BeNil())

				Expect(job.Defined.Type).To(Equal(jobentity.RunStageJobType))
				Expect(job.Defined.Stage).To(Equal("dereverb"))
				Expect(job.Defined.Status).To(Equal(jobentity.RequestedStatus))

				Expect(publisher.Published).To(HaveLen(1))
				Expect(publisher.Published[0].Type).To(Equal(coverusecase.RunStageMessageType))
			})
		})

		Describe("Unknown stage", func() {
			It("rejects the request", func() {
				_, apiErr := usecase.CreateRunStageJob(context.Background(), songID, "reticulate_splines", options)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(covererrors.UnknownStageCode))
			})
		})

		Describe("Invalid stage options", func() {
			It("rejects the request", func() {
				options.ConvertVocals.VoiceModel = ""
				_, apiErr := usecase.CreateRunStageJob(context.Background(), songID, "convert_vocals", options)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(covererrors.InvalidOptionsCode))
			})
		})
	})

	Describe("GetJob", func() {
		It("returns an existing job", func() {
			created, apiErr := usecase.CreateOneClickJob(context.Background(), songID, options)
			Expect(apiErr).To(BeNil())

			job, apiErr := usecase.GetJob(context.Background(), created.GetID())
			Expect(apiErr).To(BeNil())
			Expect(job.GetID()).To(Equal(created.GetID()))
		})

		It("reports a missing job", func() {
			_, apiErr := usecase.GetJob(context.Background(), "no-such-job")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(covererrors.JobNotFoundCode))
		})
	})

	Describe("ListJobsForSong", func() {
		It("returns the song's jobs only", func() {
			_, apiErr := usecase.CreateOneClickJob(context.Background(), songID, options)
			Expect(apiErr).To(BeNil())

			_, apiErr = usecase.CreateOneClickJob(context.Background(), "other-song", options)
			Expect(apiErr).To(BeNil())

			jobs, apiErr := usecase.ListJobsForSong(context.Background(), songID)
			Expect(apiErr).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Defined.SongID).To(Equal(songID))
		})
	})
})
