package workspacestore_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

var _ = Describe("Store", func() {
	var (
		rootPath string
		store    workspacestore.Store
	)

	BeforeEach(func() {
		rootPath = GinkgoT().TempDir()

		var err error
		store, err = workspacestore.NewStore(rootPath)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("ValidateSongID", func() {
		It("accepts a plain name", func() {
			Expect(workspacestore.ValidateSongID("cool-jamz")).To(Succeed())
		})

		It("rejects unusable names", func() {
			for _, songID := range []string{"", "  ", ".", "..", "a/b", `a\b`, ".hidden"} {
				err := workspacestore.ValidateSongID(songID)
				Expect(err).To(HaveOccurred(), "song ID %q", songID)
				Expect(markers.Is(err, workspacestore.InvalidIdentifierMark)).To(BeTrue())
			}
		})
	})

	Describe("Ensure and Get", func() {
		It("creates the workspace directory on first use", func() {
			workspace, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(workspace.SongID).To(Equal("cool-jamz"))
			Expect(workspace.Path).To(BeADirectory())
		})

		It("returns the same workspace on repeated ensures", func() {
			first, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			second, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("doesn't create a workspace on Get", func() {
			_, err := store.Get("cool-jamz")
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, workspacestore.WorkspaceNotFoundMark)).To(BeTrue())

			Expect(filepath.Join(rootPath, "cool-jamz")).NotTo(BeADirectory())
		})
	})

	Describe("List", func() {
		It("lists workspaces sorted and skips hidden entries", func() {
			for _, songID := range []string{"zebra", "alpha", "mango"} {
				_, err := store.Ensure(songID)
				Expect(err).NotTo(HaveOccurred())
			}

			err := os.MkdirAll(filepath.Join(rootPath, ".staging-leftover"), os.ModePerm)
			Expect(err).NotTo(HaveOccurred())

			songIDs, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(songIDs).To(Equal([]string{"alpha", "mango", "zebra"}))
		})
	})

	Describe("ArtifactsOf", func() {
		BeforeEach(func() {
			workspace, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			for _, dirName := range []string{
				workspaceentity.ArtifactDirName("retrieve", "aaaa"),
				workspaceentity.ArtifactDirName("mix", "bbbb"),
				".staging-123",
				"not-an-artifact",
			} {
				err := os.MkdirAll(filepath.Join(workspace.Path, dirName), os.ModePerm)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("rebuilds the artifact set from directory names", func() {
			artifacts, err := store.ArtifactsOf("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(artifacts).To(HaveLen(2))

			ids := []string{artifacts[0].ID(), artifacts[1].ID()}
			Expect(ids).To(ConsistOf("retrieve.aaaa", "mix.bbbb"))
		})

		It("errors for a song without a workspace", func() {
			_, err := store.ArtifactsOf("unknown-song")
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, workspacestore.WorkspaceNotFoundMark)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes workspaces and tolerates missing ones", func() {
			workspace, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			err = store.Delete([]string{"cool-jamz", "never-existed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(workspace.Path).NotTo(BeADirectory())
		})

		It("refuses invalid song IDs", func() {
			err := store.Delete([]string{"../escape"})
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, workspacestore.InvalidIdentifierMark)).To(BeTrue())
		})
	})

	Describe("Option snapshots", func() {
		It("round trips a snapshot", func() {
			snapshot := map[string]any{
				"retrieve": map[string]any{"source": "https://www.youtube.com/watch?v=jams"},
			}

			err := store.SaveOptionSnapshot("cool-jamz", snapshot)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := store.OptionSnapshot("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(snapshot))
		})

		It("returns an empty snapshot when none was saved", func() {
			_, err := store.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			snapshot, err := store.OptionSnapshot("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot).To(BeEmpty())
		})

		It("overwrites the previous snapshot", func() {
			err := store.SaveOptionSnapshot("cool-jamz", map[string]any{"mix": map[string]any{"main_gain": float64(1)}})
			Expect(err).NotTo(HaveOccurred())

			err = store.SaveOptionSnapshot("cool-jamz", map[string]any{"mix": map[string]any{"main_gain": float64(2)}})
			Expect(err).NotTo(HaveOccurred())

			snapshot, err := store.OptionSnapshot("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot["mix"]).To(Equal(map[string]any{"main_gain": float64(2)}))
		})
	})
})
