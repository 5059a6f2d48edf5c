package usage

import (
	"os"
	"time"

	json "github.com/goccy/go-json"

	"sud/internal/models"
	"sud/internal/providers"
	"sud/internal/services"
	"sud/internal/structures"
	"sud/internal/usage/interfaces"
)

// StateFile persists the usage snapshot as zstd-compressed JSON. Writes
// go through a temp file and rename, a crashed write never corrupts the
// previous snapshot.
type StateFile struct {
	conf       *structures.Config
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewStateFile(compressor interfaces.CompressorInterface, conf *structures.Config, logger providers.Logger) services.StatePersister {
	return &StateFile{
		conf:       conf,
		compressor: compressor,
		logger:     logger,
	}
}

func (f *StateFile) Save(state *models.UsageState) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	fileName := f.conf.Persistence.FilePath
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	if err = os.Rename(tmpFile, fileName); err != nil {
		return err
	}

	return nil
}

// Load reads the snapshot from disk. A missing file yields a fresh state.
// Unreadable or unrecognized content also yields a fresh state, losing a
// counter beats refusing to start.
func (f *StateFile) Load() (*models.UsageState, error) {
	fileName := f.conf.Persistence.FilePath
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: seed lastActiveTime so no gap is ever credited
			// against the file's absence.
			state := models.NewUsageState()
			state.SetLastActiveTime(time.Now())
			return state, nil
		}
		return nil, err
	}

	payload, err := f.compressor.Decompress(data)
	if err != nil {
		// Early versions wrote the JSON uncompressed
		payload = data
	}

	// Current format: versioned envelope with counters + streak
	var state models.UsageState
	if err := json.Unmarshal(payload, &state); err == nil && state.Counters != nil {
		state.Normalize()
		return &state, nil
	}

	// v1 format: a bare counter map, no envelope and no streak
	f.logger.Warnf(providers.TypeTimer, "Inconsistent state file found, try to migrate from old data format")
	var counters map[string]string
	if err := json.Unmarshal(payload, &counters); err == nil && counters != nil {
		f.logger.Warnf(providers.TypeTimer, "Migration from v1 format successful")
		state := models.NewUsageState()
		state.Counters = counters
		return state, nil
	}

	f.logger.Warnf(providers.TypeTimer, "State file unreadable, starting with a fresh counter")
	fresh := models.NewUsageState()
	fresh.SetLastActiveTime(time.Now())
	return fresh, nil
}
