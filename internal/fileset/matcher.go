package fileset

import (
	"path/filepath"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"go.uber.org/zap"
)

// Anomaly records a second file of the same kind for one entity. The first
// file keeps the slot; the dropped file is reported here.
type Anomaly struct {
	BaseName string          `json:"baseName" msgpack:"baseName"`
	Kind     models.FileKind `json:"kind" msgpack:"kind"`
	Kept     string          `json:"kept" msgpack:"kept"`
	Dropped  string          `json:"dropped" msgpack:"dropped"`
}

// Summary holds the counts emitted after matching.
type Summary struct {
	Sets            int `json:"sets"`
	Images          int `json:"images"`
	MatchedImages   int `json:"matchedImages"`
	UnmatchedImages int `json:"unmatchedImages"`
	Anomalies       int `json:"anomalies"`
	Rejected        int `json:"rejected"`
}

// MatchResult is the output of Match.
type MatchResult struct {
	Sets      []*models.FileSet
	Rejected  []models.RejectedFile
	Anomalies []Anomaly
	Summary   Summary
}

// Matcher groups files into FileSets by normalized name.
type Matcher struct {
	classifier *Classifier
	logger     *zap.Logger
}

// NewMatcher creates a matcher. A nil logger disables logging.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		classifier: defaultClassifier,
		logger:     logger,
	}
}

// Match walks the batch once. Sets come back in first-seen order; the base
// name of a set is the un-normalized name of its first file.
func (m *Matcher) Match(files []models.RawFile) *MatchResult {
	res := &MatchResult{}
	index := make(map[string]*models.FileSet, len(files))

	for _, f := range files {
		kind, _ := m.classifier.Classify(f.Name)
		switch kind {
		case models.KindArchive:
			res.Rejected = append(res.Rejected, models.RejectedFile{Name: f.Name, Kind: kind, Reason: ReasonArchive})
			continue
		case models.KindUnsupported:
			res.Rejected = append(res.Rejected, models.RejectedFile{Name: f.Name, Kind: kind, Reason: ReasonUnsupported})
			continue
		}

		key := Normalize(filepath.Base(f.Name))
		set, ok := index[key]
		if !ok {
			set = models.NewFileSet(StripExtension(filepath.Base(f.Name)))
			index[key] = set
			res.Sets = append(res.Sets, set)
		}

		if !set.Attach(kind, f) {
			a := Anomaly{
				BaseName: set.BaseName,
				Kind:     kind,
				Kept:     set.Slot(kind).Name,
				Dropped:  f.Name,
			}
			res.Anomalies = append(res.Anomalies, a)
			m.logger.Warn("duplicate file kind for entity",
				zap.String("base_name", a.BaseName),
				zap.String("kind", string(a.Kind)),
				zap.String("kept", a.Kept),
				zap.String("dropped", a.Dropped))
		}
	}

	res.Summary = summarize(res)
	m.logger.Info("matched file sets",
		zap.Int("sets", res.Summary.Sets),
		zap.Int("images", res.Summary.Images),
		zap.Int("matched_images", res.Summary.MatchedImages),
		zap.Int("unmatched_images", res.Summary.UnmatchedImages),
		zap.Int("anomalies", res.Summary.Anomalies),
		zap.Int("rejected", res.Summary.Rejected))
	return res
}

func summarize(res *MatchResult) Summary {
	s := Summary{
		Sets:      len(res.Sets),
		Anomalies: len(res.Anomalies),
		Rejected:  len(res.Rejected),
	}
	for _, set := range res.Sets {
		if set.ImageFile == nil {
			continue
		}
		s.Images++
		if set.JSONFile != nil {
			s.MatchedImages++
		} else {
			s.UnmatchedImages++
		}
	}
	return s
}

// HasArchive reports whether any rejection was an archive.
func (r *MatchResult) HasArchive() bool {
	for _, rj := range r.Rejected {
		if rj.Kind == models.KindArchive {
			return true
		}
	}
	return false
}
