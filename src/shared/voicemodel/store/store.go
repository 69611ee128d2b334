package voicemodelstore

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	voicemodelentity "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/entity"
)

// Store enumerates voice models by listing directories under the
// registry root. Leases track models referenced by a running conversion
// so they can't be deleted out from under it.
type Store struct {
	rootPath string

	leaseLock sync.Mutex
	leases    map[string]int
}

func NewStore(rootPathStr string) (*Store, error) {
	rootPath, err := filepath.Abs(rootPathStr)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to convert model root to absolute format")
	}

	if err := os.MkdirAll(rootPath, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "Failed to create the model root")
	}

	return &Store{
		rootPath: rootPath,
		leases:   map[string]int{},
	}, nil
}

func validateModelName(name string) error {
	if strings.TrimSpace(name) == "" {
		return mark.Message(InvalidSourceMark, "Model name is empty")
	}

	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return mark.Message(InvalidSourceMark, "Model name contains filesystem-unsafe characters")
	}

	return nil
}

func (s *Store) List() ([]voicemodelentity.VoiceModel, error) {
	dirEntries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read the model root")
	}

	models := []voicemodelentity.VoiceModel{}
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			return nil, mark.Wrap(err, DefaultErrorMark, "Failed to stat a model directory")
		}

		models = append(models, voicemodelentity.VoiceModel{
			Name:        dirEntry.Name(),
			Path:        filepath.Join(s.rootPath, dirEntry.Name()),
			InstalledAt: info.ModTime(),
		})
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})

	return models, nil
}

func (s *Store) Get(name string) (voicemodelentity.VoiceModel, error) {
	if err := validateModelName(name); err != nil {
		return voicemodelentity.VoiceModel{}, err
	}

	modelPath := filepath.Join(s.rootPath, name)
	info, err := os.Stat(modelPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return voicemodelentity.VoiceModel{}, mark.Wrap(err, ModelNotFoundMark, "No model is installed under this name")
		}

		return voicemodelentity.VoiceModel{}, mark.Wrap(err, DefaultErrorMark, "Failed to stat the model directory")
	}

	return voicemodelentity.VoiceModel{
		Name:        name,
		Path:        modelPath,
		InstalledAt: info.ModTime(),
	}, nil
}

// Install copies the weight/config files from sourceDir into the
// registry under the given name. The copy goes through a hidden staging
// directory so a half-copied model is never listed.
func (s *Store) Install(name string, sourceDir string) (voicemodelentity.VoiceModel, error) {
	if err := validateModelName(name); err != nil {
		return voicemodelentity.VoiceModel{}, err
	}

	sourceEntries, err := os.ReadDir(sourceDir)
	if err != nil {
		return voicemodelentity.VoiceModel{}, mark.Wrap(err, InvalidSourceMark, "Failed to read the model source directory")
	}

	if len(sourceEntries) == 0 {
		return voicemodelentity.VoiceModel{}, mark.Message(InvalidSourceMark, "The model source directory is empty")
	}

	modelPath := filepath.Join(s.rootPath, name)
	if _, err := os.Stat(modelPath); err == nil {
		return voicemodelentity.VoiceModel{}, mark.Message(DuplicateNameMark, "A model is already installed under this name")
	}

	stagingPath, err := os.MkdirTemp(s.rootPath, ".install-*")
	if err != nil {
		return voicemodelentity.VoiceModel{}, mark.Wrap(err, DefaultErrorMark, "Failed to create the install staging directory")
	}

	defer os.RemoveAll(stagingPath)

	for _, sourceEntry := range sourceEntries {
		if sourceEntry.IsDir() {
			continue
		}

		err := copyFile(
			filepath.Join(sourceDir, sourceEntry.Name()),
			filepath.Join(stagingPath, sourceEntry.Name()),
		)
		if err != nil {
			return voicemodelentity.VoiceModel{}, mark.Wrap(err, InvalidSourceMark, "Failed to copy a model file")
		}
	}

	if err := os.Rename(stagingPath, modelPath); err != nil {
		if _, statErr := os.Stat(modelPath); statErr == nil {
			return voicemodelentity.VoiceModel{}, mark.Wrap(err, DuplicateNameMark, "A model was installed under this name concurrently")
		}

		return voicemodelentity.VoiceModel{}, mark.Wrap(err, DefaultErrorMark, "Failed to move the model into the registry")
	}

	return s.Get(name)
}

// Acquire leases the model for the duration of a conversion. The
// release function must be called when the conversion finishes.
func (s *Store) Acquire(name string) (func(), error) {
	model, err := s.Get(name)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get the model to lease")
	}

	s.leaseLock.Lock()
	s.leases[model.Name]++
	s.leaseLock.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.leaseLock.Lock()
			defer s.leaseLock.Unlock()

			s.leases[model.Name]--
			if s.leases[model.Name] <= 0 {
				delete(s.leases, model.Name)
			}
		})
	}

	return release, nil
}

func (s *Store) leased(name string) bool {
	s.leaseLock.Lock()
	defer s.leaseLock.Unlock()

	return s.leases[name] > 0
}

// Delete removes each named model, refusing individually when a model
// is leased by a running conversion or isn't installed.
func (s *Store) Delete(names []string) voicemodelentity.DeleteOutcome {
	outcome := voicemodelentity.DeleteOutcome{
		Deleted: []string{},
		Refused: map[string]error{},
	}

	for _, name := range names {
		model, err := s.Get(name)
		if err != nil {
			outcome.Refused[name] = err
			continue
		}

		if s.leased(model.Name) {
			outcome.Refused[name] = mark.Message(ModelInUseMark, "The model is referenced by a running conversion")
			continue
		}

		if err := os.RemoveAll(model.Path); err != nil {
			outcome.Refused[name] = mark.Wrap(err, DefaultErrorMark, "Failed to remove the model directory")
			continue
		}

		outcome.Deleted = append(outcome.Deleted, name)
	}

	return outcome
}

func copyFile(sourcePath string, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrap(err, "Failed to open the source file")
	}

	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "Failed to create the destination file")
	}

	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return errors.Wrap(err, "Failed to copy the file contents")
	}

	return nil
}
