package experiment

import (
	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/storage"
)

// Record converts a finished run into its stored form.
func (r *Result) Record(cfg *config.Config) (*storage.RunMetadata, *storage.RunData) {
	opt := r.Optimization
	meta := &storage.RunMetadata{
		Config:        cfg.Clone(),
		Directions:    r.Directions,
		Points:        r.Points,
		Method:        string(opt.Method),
		Status:        opt.Status,
		Converged:     opt.Converged,
		Objective:     storage.Float(opt.F),
		Objective0:    storage.Float(opt.F0),
		ObjectiveZero: storage.Float(opt.FZero),
		GradNorm:      storage.Float(opt.GradNorm),
		Cond:          storage.Float(opt.Cond),
		Iterations:    opt.Iterations,
		Recovered:     storage.C(r.Recovered),
		Reference:     storage.C(r.Reference),
		RelativeError: storage.Float(r.RelativeError),
		Seconds:       r.Elapsed.Seconds(),
	}
	if r.Forward != nil {
		meta.Amplitude = storage.C(r.Forward.Amplitude)
		meta.TotalField = storage.C(r.Forward.TotalField)
	}
	data := &storage.RunData{
		Nu:      opt.Nu,
		History: opt.History,
		Field:   r.Field,
	}
	return meta, data
}
