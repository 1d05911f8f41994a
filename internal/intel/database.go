package intel

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// EngineVersion gates catalogue compatibility: a catalogue may declare a
// min_engine_version it requires.
const EngineVersion = "1.0.0"

// Database is the compiled tracker intelligence catalogue. It is built once
// and read-only afterwards, which lets every concurrent classification share
// it without locking.
type Database struct {
	signatures map[string]*models.TrackerSignature
	compiled   map[string][]*regexp.Regexp
	byDomain   map[string][]*models.TrackerSignature
	version    string
}

type catalogueFile struct {
	Version          string                             `json:"version"`
	MinEngineVersion string                             `json:"min_engine_version"`
	Signatures       map[string]models.TrackerSignature `json:"signatures"`
}

// Load reads a catalogue from a JSON file, or the built-in set when path is
// empty. A malformed pattern is a fatal load error: a broken pattern would
// silently disable detection and must not be allowed to run.
func Load(path string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if path == "" {
		db, err := NewDatabase(builtinSignatures(), builtinVersion)
		if err != nil {
			return nil, err
		}
		logger.Infof("loaded built-in tracker catalogue v%s (%d signatures)", db.version, len(db.signatures))
		return db, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tracker catalogue: %w", err)
	}

	var file catalogueFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tracker catalogue %s: %w", path, err)
	}

	if err := checkEngineVersion(file.MinEngineVersion); err != nil {
		return nil, err
	}

	sigs := make([]models.TrackerSignature, 0, len(file.Signatures))
	for id, sig := range file.Signatures {
		if sig.ID == "" {
			sig.ID = id
		}
		sigs = append(sigs, sig)
	}

	db, err := NewDatabase(sigs, file.Version)
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded tracker catalogue v%s from %s (%d signatures)", db.version, path, len(db.signatures))
	return db, nil
}

func checkEngineVersion(min string) error {
	if min == "" {
		return nil
	}
	required, err := semver.NewVersion(min)
	if err != nil {
		return fmt.Errorf("catalogue min_engine_version %q is not valid semver: %w", min, err)
	}
	engine := semver.MustParse(EngineVersion)
	if engine.LessThan(required) {
		return fmt.Errorf("catalogue requires engine >= %s, running %s", required, engine)
	}
	return nil
}

// NewDatabase validates and compiles a signature set.
func NewDatabase(sigs []models.TrackerSignature, version string) (*Database, error) {
	db := &Database{
		signatures: make(map[string]*models.TrackerSignature, len(sigs)),
		compiled:   make(map[string][]*regexp.Regexp, len(sigs)),
		byDomain:   make(map[string][]*models.TrackerSignature),
		version:    version,
	}
	if db.version == "" {
		db.version = "0.0.0"
	}

	for i := range sigs {
		sig := sigs[i]
		if err := sig.Validate(); err != nil {
			return nil, err
		}
		if _, dup := db.signatures[sig.ID]; dup {
			return nil, fmt.Errorf("duplicate signature id %q", sig.ID)
		}

		patterns := make([]*regexp.Regexp, 0, len(sig.Patterns))
		for _, p := range sig.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("signature %s: pattern %q: %w", sig.ID, p, err)
			}
			patterns = append(patterns, re)
		}

		db.signatures[sig.ID] = &sig
		db.compiled[sig.ID] = patterns
		for _, d := range sig.Domains {
			d = strings.ToLower(d)
			db.byDomain[d] = append(db.byDomain[d], &sig)
		}
	}

	return db, nil
}

func (db *Database) Version() string { return db.version }

func (db *Database) Len() int { return len(db.signatures) }

// All returns the signatures in stable ID order.
func (db *Database) All() []*models.TrackerSignature {
	out := make([]*models.TrackerSignature, 0, len(db.signatures))
	for _, sig := range db.signatures {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *Database) Get(id string) (*models.TrackerSignature, bool) {
	sig, ok := db.signatures[id]
	return sig, ok
}

// Patterns returns the pre-compiled patterns for a signature.
func (db *Database) Patterns(id string) []*regexp.Regexp {
	return db.compiled[id]
}

// ByDomain matches a hostname against the domain index, including parent
// domains (sub.tracker.com matches a signature listing tracker.com).
func (db *Database) ByDomain(hostname string) []*models.TrackerSignature {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return nil
	}

	var out []*models.TrackerSignature
	seen := make(map[string]struct{})
	candidate := hostname
	for {
		for _, sig := range db.byDomain[candidate] {
			if _, ok := seen[sig.ID]; !ok {
				seen[sig.ID] = struct{}{}
				out = append(out, sig)
			}
		}
		dot := strings.Index(candidate, ".")
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}
	return out
}

func (db *Database) ByCategory(category models.TrackerCategory) []*models.TrackerSignature {
	var out []*models.TrackerSignature
	for _, sig := range db.All() {
		if sig.Category == category {
			out = append(out, sig)
		}
	}
	return out
}

func (db *Database) HighRisk() []*models.TrackerSignature {
	var out []*models.TrackerSignature
	for _, sig := range db.All() {
		if sig.RiskLevel == models.RiskHigh || sig.RiskLevel == models.RiskCritical {
			out = append(out, sig)
		}
	}
	return out
}

// Stats summarizes the catalogue for the stats command and reports.
func (db *Database) Stats() map[string]interface{} {
	categories := make(map[string]int)
	riskLevels := make(map[string]int)
	methods := make(map[string]int)
	totalDomains, totalPatterns := 0, 0
	gdpr, ccpa := 0, 0

	for _, sig := range db.signatures {
		categories[string(sig.Category)]++
		riskLevels[string(sig.RiskLevel)]++
		methods[string(sig.DetectionMethod)]++
		totalDomains += len(sig.Domains)
		totalPatterns += len(sig.Patterns)
		if sig.GDPRRelevant {
			gdpr++
		}
		if sig.CCPARelevant {
			ccpa++
		}
	}

	return map[string]interface{}{
		"version":             db.version,
		"total_signatures":    len(db.signatures),
		"total_domains":       totalDomains,
		"total_patterns":      totalPatterns,
		"categories":          categories,
		"risk_levels":         riskLevels,
		"detection_methods":   methods,
		"gdpr_relevant_count": gdpr,
		"ccpa_relevant_count": ccpa,
	}
}

// ExportJSON serializes the catalogue in the loadable file format.
func (db *Database) ExportJSON() ([]byte, error) {
	file := catalogueFile{
		Version:    db.version,
		Signatures: make(map[string]models.TrackerSignature, len(db.signatures)),
	}
	for id, sig := range db.signatures {
		file.Signatures[id] = *sig
	}
	return json.MarshalIndent(file, "", "  ")
}
