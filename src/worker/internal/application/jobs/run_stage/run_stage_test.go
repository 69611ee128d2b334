package run_stage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
	"github.com/veedubyou/cover-gen-be/src/shared/integration_test/dummy"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_message"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/run_stage"
)

var _ = Describe("RunStage", func() {
	var (
		jobStore *dummy.JobStore
		handler  run_stage.JobHandler

		songID  string
		options pipeline.Options
	)

	makeMessage := func(job jobentity.Job) []byte {
		params := run_stage.JobParams{
			JobIdentifier: job_message.JobIdentifier{JobID: job.GetID()},
		}

		message, err := json.Marshal(params)
		Expect(err).NotTo(HaveOccurred())
		return message
	}

	createJob := func(stage pipeline.Stage) jobentity.Job {
		snapshot, err := options.ToSnapshot()
		Expect(err).NotTo(HaveOccurred())

		job, err := jobStore.CreateJob(context.Background(), jobentity.NewRunStageJob(songID, string(stage), snapshot))
		Expect(err).NotTo(HaveOccurred())
		return job
	}

	BeforeEach(func() {
		By("Initializing all variables", func() {
			songID = "cool-jamz"
			jobStore = dummy.NewDummyJobStore()
		})

		By("Setting up the run options", func() {
			options = pipeline.DefaultOptions()
			options.Retrieve.Source = "https://www.youtube.com/watch?v=jams"
			options.ConvertVocals.VoiceModel = "test-voice"
		})

		By("Instantiating the handler", func() {
			workspaceStore, err := workspacestore.NewStore(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			modelStore, err := voicemodelstore.NewStore(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			modelSourceDir := GinkgoT().TempDir()
			err = os.WriteFile(filepath.Join(modelSourceDir, "model.pth"), []byte("weights"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			_, err = modelStore.Install("test-voice", modelSourceDir)
			Expect(err).NotTo(HaveOccurred())

			orchestrator := pipeline.NewOrchestrator(
				workspaceStore,
				pipeline.NewCache(workspaceStore),
				dummy.NewRunnerMap(),
				modelStore)

			handler = run_stage.NewJobHandler(jobStore, orchestrator)
		})
	})

	Describe("Running the first stage on a fresh workspace", func() {
		var job jobentity.Job

		BeforeEach(func() {
			job = createJob(pipeline.StageRetrieve)
		})

		It("completes the job with the stage artifact", func() {
			_, err := handler.HandleRunStageJob(context.Background(), makeMessage(job))
			Expect(err).NotTo(HaveOccurred())

			doneJob, err := jobStore.GetJob(context.Background(), job.GetID())
			Expect(err).NotTo(HaveOccurred())

			Expect(doneJob.Defined.Status).To(Equal(jobentity.DoneStatus))
			Expect(doneJob.Defined.Progress).To(Equal(100))
			Expect(doneJob.Defined.ArtifactID).To(HavePrefix("retrieve."))
		})
	})

	Describe("Running a stage whose upstreams haven't run", func() {
		var job jobentity.Job

		BeforeEach(func() {
			job = createJob(pipeline.StageConvertVocals)
		})

		It("fails and keeps the missing prerequisite mark", func() {
			_, err := handler.HandleRunStageJob(context.Background(), makeMessage(job))
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.MissingPrerequisiteMark)).To(BeTrue())
		})
	})

	Describe("Poorly formed message", func() {
		It("returns an error", func() {
			message, err := json.Marshal(run_stage.JobParams{})
			Expect(err).NotTo(HaveOccurred())

			_, err = handler.HandleRunStageJob(context.Background(), message)
			Expect(err).To(HaveOccurred())
		})
	})
})
