package workspaceusecase_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/usecase"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

var _ = Describe("WorkspaceUsecase", func() {
	var (
		workspaceStore workspacestore.Store
		usecase        workspaceusecase.Usecase
	)

	BeforeEach(func() {
		var err error
		workspaceStore, err = workspacestore.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		usecase = workspaceusecase.NewUsecase(workspaceStore, guard.NewGuard())
	})

	Describe("ListWorkspaces", func() {
		It("returns the existing workspaces", func() {
			_, err := workspaceStore.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			_, err = workspaceStore.Ensure("other-song")
			Expect(err).NotTo(HaveOccurred())

			songIDs, apiErr := usecase.ListWorkspaces(context.Background())
			Expect(apiErr).To(BeNil())
			Expect(songIDs).To(Equal([]string{"cool-jamz", "other-song"}))
		})
	})

	Describe("ListArtifacts", func() {
		It("rejects an unusable song ID", func() {
			_, apiErr := usecase.ListArtifacts(context.Background(), "../escape")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(workspaceerrors.InvalidSongIDCode))
		})

		It("reports a missing workspace", func() {
			_, apiErr := usecase.ListArtifacts(context.Background(), "no-such-song")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(workspaceerrors.WorkspaceNotFoundCode))
		})

		It("returns an empty list for a fresh workspace", func() {
			_, err := workspaceStore.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())

			artifacts, apiErr := usecase.ListArtifacts(context.Background(), "cool-jamz")
			Expect(apiErr).To(BeNil())
			Expect(artifacts).To(BeEmpty())
		})
	})

	Describe("Deletion lifecycle", func() {
		BeforeEach(func() {
			_, err := workspaceStore.Ensure("cool-jamz")
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes the workspace only after confirmation", func() {
			staged, apiErr := usecase.StageDeletion(context.Background(), []string{"cool-jamz"})
			Expect(apiErr).To(BeNil())

			songIDs, apiErr := usecase.ListWorkspaces(context.Background())
			Expect(apiErr).To(BeNil())
			Expect(songIDs).To(ContainElement("cool-jamz"))

			deleted, apiErr := usecase.ConfirmDeletion(context.Background(), staged.Token)
			Expect(apiErr).To(BeNil())
			Expect(deleted).To(ConsistOf("cool-jamz"))

			songIDs, apiErr = usecase.ListWorkspaces(context.Background())
			Expect(apiErr).To(BeNil())
			Expect(songIDs).NotTo(ContainElement("cool-jamz"))
		})

		It("keeps the workspace when the deletion is cancelled", func() {
			staged, apiErr := usecase.StageDeletion(context.Background(), []string{"cool-jamz"})
			Expect(apiErr).To(BeNil())

			apiErr = usecase.CancelDeletion(context.Background(), staged.Token)
			Expect(apiErr).To(BeNil())

			_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(workspaceerrors.UnknownDeleteTokenCode))

			songIDs, apiErr := usecase.ListWorkspaces(context.Background())
			Expect(apiErr).To(BeNil())
			Expect(songIDs).To(ContainElement("cool-jamz"))
		})

		It("never lets an empty staging reach confirmation", func() {
			staged, apiErr := usecase.StageDeletion(context.Background(), []string{})
			Expect(apiErr).To(BeNil())
			Expect(staged.Token).To(BeEmpty())
			Expect(staged.Items).To(BeEmpty())

			_, apiErr = usecase.ConfirmDeletion(context.Background(), staged.Token)
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(workspaceerrors.UnknownDeleteTokenCode))
		})

		It("refuses to stage an unusable song ID", func() {
			_, apiErr := usecase.StageDeletion(context.Background(), []string{"cool-jamz", "../escape"})
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(workspaceerrors.InvalidSongIDCode))
		})
	})
})
