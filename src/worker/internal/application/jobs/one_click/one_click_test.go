package one_click_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
	"github.com/veedubyou/cover-gen-be/src/shared/integration_test/dummy"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_message"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/one_click"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/storagepath"
)

var _ = Describe("OneClick", func() {
	var (
		jobStore  *dummy.JobStore
		fileStore *dummy.FileStore

		handler one_click.JobHandler

		songID     string
		bucketName string
		options    pipeline.Options
		job        jobentity.Job
		message    []byte
	)

	BeforeEach(func() {
		By("Initializing all variables", func() {
			songID = "cool-jamz"
			bucketName = "bucket-head"
			message = nil

			jobStore = dummy.NewDummyJobStore()
			fileStore = dummy.NewDummyFileStore()
		})

		By("Setting up the run options", func() {
			options = pipeline.DefaultOptions()
			options.Retrieve.Source = "https://www.youtube.com/watch?v=jams"
			options.ConvertVocals.VoiceModel = "test-voice"
		})

		var orchestrator *pipeline.Orchestrator
		By("Instantiating the orchestrator", func() {
			workspaceStore, err := workspacestore.NewStore(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			modelStore, err := voicemodelstore.NewStore(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			modelSourceDir := GinkgoT().TempDir()
			err = os.WriteFile(filepath.Join(modelSourceDir, "model.pth"), []byte("weights"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			_, err = modelStore.Install("test-voice", modelSourceDir)
			Expect(err).NotTo(HaveOccurred())

			orchestrator = pipeline.NewOrchestrator(
				workspaceStore,
				pipeline.NewCache(workspaceStore),
				dummy.NewRunnerMap(),
				modelStore)
		})

		By("Creating the job record", func() {
			snapshot, err := options.ToSnapshot()
			Expect(err).NotTo(HaveOccurred())

			job, err = jobStore.CreateJob(context.Background(), jobentity.NewOneClickJob(songID, snapshot))
			Expect(err).NotTo(HaveOccurred())
		})

		By("Instantiating the handler", func() {
			pathGenerator := storagepath.Generator{Bucket: bucketName}
			handler = one_click.NewJobHandler(jobStore, orchestrator, fileStore, pathGenerator)
		})
	})

	Describe("Well formed message", func() {
		BeforeEach(func() {
			params := one_click.JobParams{
				JobIdentifier: job_message.JobIdentifier{JobID: job.GetID()},
			}

			var err error
			message, err = json.Marshal(params)
			Expect(err).NotTo(HaveOccurred())
		})

		Describe("Happy path", func() {
			var err error

			BeforeEach(func() {
				_, err = handler.HandleOneClickJob(context.Background(), message)
			})

			It("doesn't return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("marks the job as done", func() {
				doneJob, err := jobStore.GetJob(context.Background(), job.GetID())
				Expect(err).NotTo(HaveOccurred())

				Expect(doneJob.Defined.Status).To(Equal(jobentity.DoneStatus))
				Expect(doneJob.Defined.Progress).To(Equal(100))
			})

			It("records the mix artifact ID", func() {
				doneJob, err := jobStore.GetJob(context.Background(), job.GetID())
				Expect(err).NotTo(HaveOccurred())

				Expect(doneJob.Defined.ArtifactID).To(HavePrefix("mix."))
			})

			It("uploads the cover and records its URL", func() {
				doneJob, err := jobStore.GetJob(context.Background(), job.GetID())
				Expect(err).NotTo(HaveOccurred())

				objectPath := fmt.Sprintf("covers/%s/%s/cover.mp3", songID, job.GetID())
				expectedURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, objectPath)
				Expect(doneJob.Defined.CoverURL).To(Equal(expectedURL))

				contents, err := fileStore.GetFile(context.Background(), bucketName, objectPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(contents).NotTo(BeEmpty())
			})
		})

		Describe("Job is not in requested status", func() {
			BeforeEach(func() {
				_, err := jobStore.UpdateJob(context.Background(), job.GetID(), func(job jobentity.Job) (jobentity.Job, error) {
					job.Defined.Status = jobentity.ProcessingStatus
					return job, nil
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns an error", func() {
				_, err := handler.HandleOneClickJob(context.Background(), message)
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("Can't reach the job store", func() {
			BeforeEach(func() {
				jobStore.Unavailable = true
			})

			It("returns an error", func() {
				_, err := handler.HandleOneClickJob(context.Background(), message)
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("The pipeline fails", func() {
			BeforeEach(func() {
				_, err := jobStore.UpdateJob(context.Background(), job.GetID(), func(job jobentity.Job) (jobentity.Job, error) {
					brokenOptions := options
					brokenOptions.Retrieve.Source = ""

					snapshot, err := brokenOptions.ToSnapshot()
					if err != nil {
						return jobentity.Job{}, err
					}

					job.Defined.Options = snapshot
					return job, nil
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns an error", func() {
				_, err := handler.HandleOneClickJob(context.Background(), message)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Poorly formed message", func() {
		BeforeEach(func() {
			var err error
			message, err = json.Marshal(one_click.JobParams{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns an error", func() {
			_, err := handler.HandleOneClickJob(context.Background(), message)
			Expect(err).To(HaveOccurred())
		})
	})
})
