package voicemodelusecase_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/usecase"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	"github.com/veedubyou/cover-gen-be/src/shared/integration_test/dummy"
)

var _ = Describe("VoiceModelUsecase", func() {
	var (
		modelStore *voicemodelstore.Store
		jobStore   *dummy.JobStore
		usecase    voicemodelusecase.Usecase

		modelSourceDir string
	)

	installModel := func(name string) {
		_, apiErr := usecase.InstallModel(context.Background(), name, modelSourceDir)
		Expect(apiErr).To(BeNil())
	}

	createJob := func(job jobentity.Job, status jobentity.JobStatus) {
		created, err := jobStore.CreateJob(context.Background(), job)
		Expect(err).NotTo(HaveOccurred())

		_, err = jobStore.UpdateJob(context.Background(), created.GetID(), func(job jobentity.Job) (jobentity.Job, error) {
			job.Defined.Status = status
			return job, nil
		})
		Expect(err).NotTo(HaveOccurred())
	}

	optionsUsing := func(modelName string) map[string]any {
		options := pipeline.DefaultOptions()
		options.Retrieve.Source = "https://www.youtube.com/watch?v=jams"
		options.ConvertVocals.VoiceModel = modelName

		snapshot, err := options.ToSnapshot()
		Expect(err).NotTo(HaveOccurred())
		return snapshot
	}

	confirmDeletion := func(names ...string) (deleted []string, refused map[string]error) {
		staged, apiErr := usecase.StageDeletion(context.Background(), names)
		Expect(apiErr).To(BeNil())

		outcome, apiErr := usecase.ConfirmDeletion(context.Background(), staged.Token)
		Expect(apiErr).To(BeNil())
		return outcome.Deleted, outcome.Refused
	}

	BeforeEach(func() {
		var err error
		modelStore, err = voicemodelstore.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		modelSourceDir = GinkgoT().TempDir()
		err = os.WriteFile(filepath.Join(modelSourceDir, "model.pth"), []byte("weights"), 0o644)
		Expect(err).NotTo(HaveOccurred())

		jobStore = dummy.NewDummyJobStore()
		usecase = voicemodelusecase.NewUsecase(modelStore, jobStore, guard.NewGuard())
	})

	Describe("InstallModel", func() {
		It("rejects a duplicate name", func() {
			installModel("test-voice")

			_, apiErr := usecase.InstallModel(context.Background(), "test-voice", modelSourceDir)
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(voicemodelerrors.DuplicateModelCode))
		})

		It("rejects an unusable source", func() {
			_, apiErr := usecase.InstallModel(context.Background(), "test-voice", GinkgoT().TempDir())
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(voicemodelerrors.InvalidModelSourceCode))
		})
	})

	Describe("ConfirmDeletion", func() {
		BeforeEach(func() {
			installModel("test-voice")
		})

		Describe("No job references the model", func() {
			It("deletes it", func() {
				deleted, refused := confirmDeletion("test-voice")
				Expect(deleted).To(ConsistOf("test-voice"))
				Expect(refused).To(BeEmpty())
			})
		})

		Describe("An active job references the model", func() {
			BeforeEach(func() {
				createJob(jobentity.NewOneClickJob("cool-jamz", optionsUsing("test-voice")), jobentity.ProcessingStatus)
			})

			It("refuses the deletion", func() {
				deleted, refused := confirmDeletion("test-voice")
				Expect(deleted).To(BeEmpty())
				Expect(refused).To(HaveKey("test-voice"))
				Expect(markers.Is(refused["test-voice"], voicemodelstore.ModelInUseMark)).To(BeTrue())
			})
		})

		Describe("Only a finished job references the model", func() {
			BeforeEach(func() {
				createJob(jobentity.NewOneClickJob("cool-jamz", optionsUsing("test-voice")), jobentity.DoneStatus)
			})

			It("deletes it", func() {
				deleted, refused := confirmDeletion("test-voice")
				Expect(deleted).To(ConsistOf("test-voice"))
				Expect(refused).To(BeEmpty())
			})
		})

		Describe("An active stage job names the model without converting", func() {
			BeforeEach(func() {
				createJob(
					jobentity.NewRunStageJob("cool-jamz", string(pipeline.StageRetrieve), optionsUsing("test-voice")),
					jobentity.RequestedStatus)
			})

			It("deletes it anyway", func() {
				deleted, refused := confirmDeletion("test-voice")
				Expect(deleted).To(ConsistOf("test-voice"))
				Expect(refused).To(BeEmpty())
			})
		})

		Describe("An active conversion stage job references the model", func() {
			BeforeEach(func() {
				createJob(
					jobentity.NewRunStageJob("cool-jamz", string(pipeline.StageConvertVocals), optionsUsing("test-voice")),
					jobentity.RequestedStatus)
			})

			It("refuses the deletion", func() {
				deleted, refused := confirmDeletion("test-voice")
				Expect(deleted).To(BeEmpty())
				Expect(refused).To(HaveKey("test-voice"))
			})
		})

		Describe("Mixed selection", func() {
			BeforeEach(func() {
				installModel("spare-voice")
				createJob(jobentity.NewOneClickJob("cool-jamz", optionsUsing("test-voice")), jobentity.RequestedStatus)
			})

			It("deletes what it can and refuses the rest", func() {
				deleted, refused := confirmDeletion("test-voice", "spare-voice", "nobody")
				Expect(deleted).To(ConsistOf("spare-voice"))
				Expect(refused).To(HaveKey("test-voice"))
				Expect(markers.Is(refused["nobody"], voicemodelstore.ModelNotFoundMark)).To(BeTrue())
			})
		})

		Describe("Token lifecycle", func() {
			It("never lets an empty staging reach confirmation", func() {
				staged, apiErr := usecase.StageDeletion(context.Background(), []string{})
				Expect(apiErr).To(BeNil())
				Expect(staged.Token).To(BeEmpty())

				_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(voicemodelerrors.UnknownDeleteTokenCode))
			})

			It("refuses a consumed token", func() {
				staged, apiErr := usecase.StageDeletion(context.Background(), []string{"test-voice"})
				Expect(apiErr).To(BeNil())

				_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
				Expect(apiErr).To(BeNil())

				_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(voicemodelerrors.UnknownDeleteTokenCode))
			})

			It("refuses a cancelled token", func() {
				staged, apiErr := usecase.StageDeletion(context.Background(), []string{"test-voice"})
				Expect(apiErr).To(BeNil())

				apiErr = usecase.CancelDeletion(context.Background(), staged.Token)
				Expect(apiErr).To(BeNil())

				_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(voicemodelerrors.UnknownDeleteTokenCode))
			})
		})
	})
})
