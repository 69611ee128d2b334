package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

// recordingRunner writes the stage's expected outputs and counts how
// many times it actually ran, so cache hits are observable.
type recordingRunner struct {
	lock     sync.Mutex
	runCount int
	fail     error
}

var recordedStageOutputs = map[pipeline.Stage][]string{
	pipeline.StageRetrieve:           {pipeline.OriginalFileName},
	pipeline.StageSeparateVocals:     {pipeline.VocalsFileName, pipeline.InstrumentalFileName},
	pipeline.StageSeparateMainBackup: {pipeline.MainVocalsFileName, pipeline.BackupVocalsFileName},
	pipeline.StageDereverb:           {pipeline.DryMainVocalsFileName},
	pipeline.StageConvertVocals:      {pipeline.ConvertedVocalsFileName},
	pipeline.StagePostprocess:        {pipeline.FinalVocalsFileName},
	pipeline.StagePitchShift:         {pipeline.ShiftedInstrumentalFileName},
}

func (r *recordingRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	r.lock.Lock()
	r.runCount++
	failErr := r.fail
	r.lock.Unlock()

	if failErr != nil {
		return failErr
	}

	outputs := recordedStageOutputs[execution.Stage]
	if execution.Stage == pipeline.StageMix {
		format, ok := execution.Options["output_format"].(string)
		Expect(ok).To(BeTrue())
		outputs = []string{pipeline.CoverFileName(format)}
	}

	for _, fileName := range outputs {
		if err := os.WriteFile(execution.OutputFile(fileName), []byte("audio"), 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (r *recordingRunner) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.runCount
}

func (r *recordingRunner) setFailure(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.fail = err
}

var _ = Describe("Orchestrator", func() {
	var (
		workspaceStore workspacestore.Store
		modelStore     *voicemodelstore.Store
		runners        map[pipeline.Stage]*recordingRunner
		orchestrator   *pipeline.Orchestrator

		songID  string
		options pipeline.Options
	)

	runCounts := func() map[pipeline.Stage]int {
		counts := map[pipeline.Stage]int{}
		for stage, runner := range runners {
			counts[stage] = runner.count()
		}
		return counts
	}

	expectAllCounts := func(expected int) {
		for stage, count := range runCounts() {
			Expect(count).To(Equal(expected), "stage %s", stage)
		}
	}

	BeforeEach(func() {
		var err error
		workspaceStore, err = workspacestore.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		modelStore, err = voicemodelstore.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		modelSourceDir := GinkgoT().TempDir()
		err = os.WriteFile(filepath.Join(modelSourceDir, "model.pth"), []byte("weights"), 0o644)
		Expect(err).NotTo(HaveOccurred())

		_, err = modelStore.Install("test-voice", modelSourceDir)
		Expect(err).NotTo(HaveOccurred())

		runners = map[pipeline.Stage]*recordingRunner{}
		runnerMap := pipeline.RunnerMap{}
		for _, stage := range pipeline.AllStages() {
			runner := &recordingRunner{}
			runners[stage] = runner
			runnerMap[stage] = runner
		}

		orchestrator = pipeline.NewOrchestrator(
			workspaceStore,
			pipeline.NewCache(workspaceStore),
			runnerMap,
			modelStore)

		songID = "cool-jamz"
		options = pipeline.DefaultOptions()
		options.Retrieve.Source = "https://www.youtube.com/watch?v=jams"
		options.ConvertVocals.VoiceModel = "test-voice"
	})

	Describe("RunOneClick", func() {
		It("produces the mix artifact with a cover file", func() {
			artifact, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			Expect(artifact.Stage).To(Equal(string(pipeline.StageMix)))
			Expect(artifact.OutputPath(pipeline.CoverFileName("mp3"))).To(BeAnExistingFile())
			expectAllCounts(1)
		})

		It("rejects invalid options without running anything", func() {
			options.Retrieve.Source = ""

			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.InvalidOptionsMark)).To(BeTrue())
			expectAllCounts(0)
		})

		It("fails when the voice model isn't installed", func() {
			options.ConvertVocals.VoiceModel = "nobody"

			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, voicemodelstore.ModelNotFoundMark)).To(BeTrue())
		})

		It("serves a repeated run entirely from the cache", func() {
			first, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			second, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.ID()).To(Equal(first.ID()))
			expectAllCounts(1)
		})

		It("reruns only the mix when only mix options change", func() {
			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			options.Mix.MainGain = 3
			_, err = orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			counts := runCounts()
			Expect(counts[pipeline.StageMix]).To(Equal(2))
			for _, stage := range pipeline.AllStages() {
				if stage == pipeline.StageMix {
					continue
				}

				Expect(counts[stage]).To(Equal(1), "stage %s", stage)
			}
		})

		It("reruns the whole pipeline when the source changes", func() {
			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			options.Retrieve.Source = "https://www.youtube.com/watch?v=other-jams"
			_, err = orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			expectAllCounts(2)
		})

		It("resumes from committed artifacts after a stage failure", func() {
			runners[pipeline.StageConvertVocals].setFailure(errors.New("conversion exploded"))

			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.StageFailedMark)).To(BeTrue())

			runners[pipeline.StageConvertVocals].setFailure(nil)

			_, err = orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			counts := runCounts()
			Expect(counts[pipeline.StageRetrieve]).To(Equal(1))
			Expect(counts[pipeline.StageSeparateVocals]).To(Equal(1))
			Expect(counts[pipeline.StageSeparateMainBackup]).To(Equal(1))
			Expect(counts[pipeline.StageDereverb]).To(Equal(1))
			Expect(counts[pipeline.StageConvertVocals]).To(Equal(2))
		})

		It("reruns a stage whose cached artifact lost an output file", func() {
			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			artifacts, err := workspaceStore.ArtifactsOf(songID)
			Expect(err).NotTo(HaveOccurred())

			removed := false
			for _, artifact := range artifacts {
				if artifact.Stage == string(pipeline.StageSeparateVocals) {
					err := os.Remove(artifact.OutputPath(pipeline.VocalsFileName))
					Expect(err).NotTo(HaveOccurred())
					removed = true
				}
			}
			Expect(removed).To(BeTrue())

			_, err = orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			counts := runCounts()
			Expect(counts[pipeline.StageSeparateVocals]).To(Equal(2))
			Expect(counts[pipeline.StageRetrieve]).To(Equal(1))
			Expect(counts[pipeline.StageMix]).To(Equal(1))
		})

		It("refuses to run on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := orchestrator.RunOneClick(ctx, songID, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.RunCancelledMark)).To(BeTrue())
		})

		It("collapses concurrent identical runs into one execution per stage", func() {
			var wg sync.WaitGroup
			results := make([]workspaceentity.Artifact, 2)
			errs := make([]error, 2)

			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					results[i], errs[i] = orchestrator.RunOneClick(context.Background(), songID, options)
				}(i)
			}

			wg.Wait()

			Expect(errs[0]).NotTo(HaveOccurred())
			Expect(errs[1]).NotTo(HaveOccurred())
			Expect(results[0].ID()).To(Equal(results[1].ID()))
			expectAllCounts(1)
		})
	})

	Describe("RunStep", func() {
		It("rejects an unknown stage", func() {
			_, err := orchestrator.RunStep(context.Background(), songID, pipeline.Stage("autotune"), options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.UnknownStageMark)).To(BeTrue())
		})

		It("runs the retrieve stage on a fresh workspace", func() {
			artifact, err := orchestrator.RunStep(context.Background(), songID, pipeline.StageRetrieve, options)
			Expect(err).NotTo(HaveOccurred())

			Expect(artifact.Stage).To(Equal(string(pipeline.StageRetrieve)))
			Expect(artifact.OutputPath(pipeline.OriginalFileName)).To(BeAnExistingFile())
		})

		It("names the missing prerequisite stage", func() {
			_, err := orchestrator.RunStep(context.Background(), songID, pipeline.StageConvertVocals, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.MissingPrerequisiteMark)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("dereverb"))
		})

		It("requires both mix prerequisites", func() {
			for _, stage := range []pipeline.Stage{
				pipeline.StageRetrieve,
				pipeline.StageSeparateVocals,
				pipeline.StageSeparateMainBackup,
				pipeline.StageDereverb,
				pipeline.StageConvertVocals,
				pipeline.StagePostprocess,
			} {
				_, err := orchestrator.RunStep(context.Background(), songID, stage, options)
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := orchestrator.RunStep(context.Background(), songID, pipeline.StageMix, options)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, pipeline.MissingPrerequisiteMark)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("pitch_shift"))
		})

		It("lets a one-click run reuse every stepped artifact", func() {
			for _, stage := range pipeline.AllStages() {
				_, err := orchestrator.RunStep(context.Background(), songID, stage, options)
				Expect(err).NotTo(HaveOccurred())
			}

			artifact, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			Expect(artifact.Stage).To(Equal(string(pipeline.StageMix)))
			expectAllCounts(1)
		})

		It("absorbs stepped options into the workspace snapshot", func() {
			_, err := orchestrator.RunOneClick(context.Background(), songID, options)
			Expect(err).NotTo(HaveOccurred())

			tweaked := options
			tweaked.Dereverb.DryWet = 0.5
			_, err = orchestrator.RunStep(context.Background(), songID, pipeline.StageDereverb, tweaked)
			Expect(err).NotTo(HaveOccurred())
			Expect(runners[pipeline.StageDereverb].count()).To(Equal(2))

			// the conversion step sees the dereverb tweak through the
			// snapshot, so its upstream resolves to the new artifact
			_, err = orchestrator.RunStep(context.Background(), songID, pipeline.StageConvertVocals, options)
			Expect(err).NotTo(HaveOccurred())
			Expect(runners[pipeline.StageConvertVocals].count()).To(Equal(2))
		})
	})
})
