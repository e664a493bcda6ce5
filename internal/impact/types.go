package impact

import (
	"fmt"
	"strings"
)

// --- Enums ---

// RiskLevel is an ordered risk grade: Low < Medium < High < Critical.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	// RiskCritical is part of the scale but no rule currently assigns it.
	RiskCritical
)

var riskNames = [...]string{"low", "medium", "high", "critical"}

func (r RiskLevel) String() string {
	if r < RiskLow || r > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
	return riskNames[r]
}

// AtLeast reports whether r is as severe as other or more.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r >= other
}

// MarshalText encodes the level by name.
func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskLow || r > RiskCritical {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(riskNames[r]), nil
}

// UnmarshalText decodes a level name, case-insensitively.
func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// ParseRiskLevel converts a level name to a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for i, name := range riskNames {
		if strings.EqualFold(s, name) {
			return RiskLevel(i), nil
		}
	}
	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

// Operation is the kind of file operation being analyzed.
type Operation string

const (
	OperationMove   Operation = "move"
	OperationRename Operation = "rename"
	OperationDelete Operation = "delete"
)

// ImportTypeUnknown marks a change whose statement form is decided when the
// updater rewrites the file.
const ImportTypeUnknown = "unknown"

// --- Models ---

// ImportChange is one required rewrite in an importing file. LineNumber is
// zero until the updater locates the statement. An empty NewImport means the
// import has no replacement.
type ImportChange struct {
	File       string `json:"file"`
	LineNumber int    `json:"line_number,omitempty"`
	OldImport  string `json:"old_import"`
	NewImport  string `json:"new_import"`
	ImportType string `json:"import_type"`
}

// ImpactReport describes the consequences of moving, renaming or deleting a
// file. Reports are built per query and never stored.
type ImpactReport struct {
	Operation              Operation      `json:"operation"`
	SourceFile             string         `json:"source_file"`
	TargetFile             string         `json:"target_file,omitempty"`
	RiskLevel              RiskLevel      `json:"risk_level"`
	AffectedFiles          []string       `json:"affected_files"`
	TransitivelyAffected   []string       `json:"transitively_affected"`
	ImportChanges          []ImportChange `json:"import_changes"`
	CircularDependencyRisk bool           `json:"circular_dependency_risk"`
	TestFilesAffected      []string       `json:"test_files_affected"`
	EstimatedChanges       int            `json:"estimated_changes"`
	Warnings               []string       `json:"warnings"`
	Recommendations        []string       `json:"recommendations"`
}

func newReport(op Operation, source, target string) *ImpactReport {
	return &ImpactReport{
		Operation:            op,
		SourceFile:           source,
		TargetFile:           target,
		RiskLevel:            RiskLow,
		AffectedFiles:        []string{},
		TransitivelyAffected: []string{},
		ImportChanges:        []ImportChange{},
		TestFilesAffected:    []string{},
		Warnings:             []string{},
		Recommendations:      []string{},
	}
}
