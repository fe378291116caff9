package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"

	"github.com/san-kum/dimersim/internal/physics"
	"github.com/san-kum/dimersim/internal/sim"
)

var log = logging.MustGetLogger("storage")

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.dat"
)

// ErrRunNotFound is returned when a run ID is neither indexed nor on disk.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Integrator string             `json:"integrator"`
	Params     physics.Params     `json:"params"`
	Steps      int                `json:"steps"`
	Mean       []float64          `json:"mean,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run is a run directory being written. Its Writer can be attached to a
// simulator so rows reach disk while the integration proceeds.
type Run struct {
	Meta   *RunMetadata
	Writer *DatWriter

	store *Store
	dir   string
	file  *os.File
}

// Create allocates a run directory and opens its trajectory file.
func (s *Store) Create(seed int64, integrator string, p physics.Params) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	now := time.Now()
	meta := &RunMetadata{
		Timestamp:  now,
		Seed:       seed,
		Integrator: integrator,
		Params:     p,
		Metrics:    make(map[string]float64),
	}

	// IDs are nanosecond timestamps; bump until the directory is new.
	var dir string
	for stamp := now.UnixNano(); ; stamp++ {
		meta.ID = fmt.Sprintf("dimer_%d", stamp)
		dir = filepath.Join(s.baseDir, meta.ID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}

	f, err := os.Create(filepath.Join(dir, trajectoryFile))
	if err != nil {
		return nil, err
	}
	w, err := NewDatWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	log.Debugf("created run %s in %s", meta.ID, dir)
	return &Run{Meta: meta, Writer: w, store: s, dir: dir, file: f}, nil
}

// Commit finishes the trajectory file, writes metadata.json and indexes
// the run. Non-finite metrics are dropped since JSON cannot carry them.
func (r *Run) Commit(result *sim.Result) error {
	if err := r.Writer.Close(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}

	if result != nil {
		r.Meta.Steps = result.StepsTaken
		r.Meta.Mean = result.Trajectory.Mean()
		for name, v := range result.Metrics {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			r.Meta.Metrics[name] = v
		}
	}

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Meta); err != nil {
		return err
	}

	if err := r.store.putIndex(r.Meta); err != nil {
		return fmt.Errorf("index run %s: %w", r.Meta.ID, err)
	}
	log.Debugf("committed run %s (%d rows)", r.Meta.ID, r.Writer.Rows())
	return nil
}

// Abort closes and removes a run that did not complete.
func (r *Run) Abort() error {
	r.file.Close()
	return os.RemoveAll(r.dir)
}

// Save writes a finished result as a new run and returns its ID.
func (s *Store) Save(seed int64, p physics.Params, result *sim.Result) (string, error) {
	run, err := s.Create(seed, result.Integrator, p)
	if err != nil {
		return "", err
	}
	tr := result.Trajectory
	times := tr.Times()
	for i := range times {
		if err := run.Writer.OnStep(i, times[i], tr.State(i)); err != nil {
			_ = run.Abort()
			return "", err
		}
	}
	if err := run.Commit(result); err != nil {
		return "", err
	}
	return run.Meta.ID, nil
}

// List returns the indexed runs in ID order.
func (s *Store) List() ([]RunMetadata, error) {
	runs := make([]RunMetadata, 0)
	err := s.scanIndex(func(id string, data []byte) error {
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			log.Warningf("skipping unreadable index entry %s: %v", id, err)
			return nil
		}
		runs = append(runs, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Load returns the metadata of a run, from the index or, failing that,
// from the run directory.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := s.getIndex(runID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data, err = os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err != nil {
			return nil, err
		}
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*sim.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDat(f)
}
