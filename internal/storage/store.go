package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/invscat/internal/config"
)

const (
	metadataFile = "metadata.json"
	nuFile       = "nu.csv"
	historyFile  = "history.csv"
	fieldFile    = "field.csv"
)

// ErrNoRun indicates a run id with no metadata on disk.
var ErrNoRun = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the directory of run id.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Float is a float64 whose JSON form admits NaN and the infinities as the
// strings "NaN", "+Inf" and "-Inf".
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte(strconv.Quote(strconv.FormatFloat(v, 'g', -1, 64))), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("storage: float %s: %w", data, err)
	}
	*f = Float(v)
	return nil
}

// Complex is a JSON-friendly complex number.
type Complex struct {
	Re Float `json:"re"`
	Im Float `json:"im"`
}

func C(z complex128) Complex { return Complex{Re: Float(real(z)), Im: Float(imag(z))} }

func (c Complex) Value() complex128 { return complex(float64(c.Re), float64(c.Im)) }

type RunMetadata struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Config        *config.Config `json:"config"`
	Directions    int            `json:"directions"`
	Points        int            `json:"points"`
	Method        string         `json:"method"`
	Status        string         `json:"status"`
	Converged     bool           `json:"converged"`
	Objective     Float          `json:"objective"`
	Objective0    Float          `json:"objective0"`
	ObjectiveZero Float          `json:"objective_zero"`
	GradNorm      Float          `json:"grad_norm"`
	Cond          Float          `json:"cond,omitempty"`
	Iterations    int            `json:"iterations"`
	Amplitude     Complex        `json:"amplitude"`
	TotalField    Complex        `json:"total_field"`
	Recovered     Complex        `json:"recovered"`
	Reference     Complex        `json:"reference"`
	RelativeError Float          `json:"relative_error"`
	Seconds       float64        `json:"seconds"`
}

// RunData is the bulk output of a run, stored as CSV next to the metadata.
type RunData struct {
	Nu      []complex128
	History []float64
	Field   [][]complex128
}

// NewRunID returns invert_<unix>_<8 hex>.
func NewRunID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().Unix(), uuid.NewString()[:8])
}

// Save writes a run under a fresh id, filling meta.ID and meta.Timestamp.
func (s *Store) Save(meta *RunMetadata, data *RunData) (string, error) {
	meta.ID = NewRunID("invert")
	meta.Timestamp = time.Now()
	runDir := s.Dir(meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if data == nil {
		return meta.ID, nil
	}
	if err := writeCSV(filepath.Join(runDir, nuFile), []string{"l", "re", "im"}, len(data.Nu), func(i int) []string {
		return []string{strconv.Itoa(i), formatFloat(real(data.Nu[i])), formatFloat(imag(data.Nu[i]))}
	}); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, historyFile), []string{"iteration", "objective"}, len(data.History), func(i int) []string {
		return []string{strconv.Itoa(i + 1), formatFloat(data.History[i])}
	}); err != nil {
		return "", err
	}
	if len(data.Field) > 0 {
		header := make([]string, len(data.Field[0]))
		for l := range header {
			header[l] = fmt.Sprintf("alpha%d", l)
		}
		if err := writeCSV(filepath.Join(runDir, fieldFile), header, len(data.Field), func(i int) []string {
			row := make([]string, len(data.Field[i]))
			for l, v := range data.Field[i] {
				row[l] = strconv.FormatComplex(v, 'g', -1, 128)
			}
			return row
		}); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadNu(runID string) ([]complex128, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), nuFile))
	if err != nil {
		return nil, err
	}
	nu := make([]complex128, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s row %d: want 3 fields, got %d", nuFile, i+1, len(rec))
		}
		re, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		im, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, err
		}
		nu = append(nu, complex(re, im))
	}
	return nu, nil
}

func (s *Store) LoadHistory(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), historyFile))
	if err != nil {
		return nil, err
	}
	history := make([]float64, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		history = append(history, v)
	}
	return history, nil
}

// LoadField reads the (point x direction) total-field matrix.
func (s *Store) LoadField(runID string) ([][]complex128, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), fieldFile))
	if err != nil {
		return nil, err
	}
	field := make([][]complex128, len(records))
	for i, rec := range records {
		field[i] = make([]complex128, len(rec))
		for l, v := range rec {
			z, err := strconv.ParseComplex(v, 128)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", fieldFile, i+1, err)
			}
			field[i][l] = z
		}
	}
	return field, nil
}
