package curriculum

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultSectionDuration = 10 // minutes

var titleCaser = cases.Title(language.English)

// Distributor assigns uploads to modules and builds their sections.
type Distributor struct {
	// ContentRef resolves an upload to its stored artifact reference. The
	// distributor only forwards the reference, never inspects content.
	ContentRef func(Upload) string
}

// Distribute builds one module per spec and assigns uploads to modules as
// contiguous slices of size ceil(len(uploads)/len(specs)). Later modules may
// receive zero uploads; an empty section list is a valid terminal state.
// No upload is ever dropped.
func (d *Distributor) Distribute(uploads []Upload, specs []ModuleSpec, prerequisites []string) []Module {
	modules := make([]Module, len(specs))
	perModule := 0
	if len(specs) > 0 {
		perModule = (len(uploads) + len(specs) - 1) / len(specs)
	}

	for i, spec := range specs {
		module := Module{
			ID:                 uuid.NewString(),
			Title:              spec.Title,
			Description:        spec.Description,
			Order:              i + 1,
			Sections:           []Section{},
			Assessments:        []Assessment{},
			DurationMinutes:    spec.DurationMinutes,
			Difficulty:         spec.Difficulty,
			LearningObjectives: spec.LearningObjectives,
			Prerequisites:      prerequisites,
		}

		start := i * perModule
		end := min(start+perModule, len(uploads))
		if perModule > 0 && start < len(uploads) {
			for j, u := range uploads[start:end] {
				module.Sections = append(module.Sections, d.buildSection(u, j+1))
			}
		}

		if len(module.Sections) > 0 {
			total := 0
			for _, sec := range module.Sections {
				total += sec.EstimatedDurationMinutes
			}
			module.DurationMinutes = total
		}

		modules[i] = module
	}

	return modules
}

func (d *Distributor) buildSection(u Upload, orderIndex int) Section {
	section := Section{
		ID:                       uuid.NewString(),
		Title:                    SectionTitle(u.Name),
		Type:                     sectionTypeFor(u.MediaKind),
		KeyPoints:                []string{},
		EstimatedDurationMinutes: defaultSectionDuration,
		OrderIndex:               orderIndex,
	}
	if d.ContentRef != nil {
		section.ContentRef = d.ContentRef(u)
	}
	if a := u.Analysis; a != nil {
		section.KeyPoints = append(section.KeyPoints, a.KeyTopics...)
		if a.EstimatedReadMinutes > 0 {
			section.EstimatedDurationMinutes = a.EstimatedReadMinutes
		}
	}
	return section
}

func sectionTypeFor(kind MediaKind) SectionType {
	if kind == MediaVideo {
		return SectionVideo
	}
	return SectionDocument
}

// SectionTitle derives a display title from an upload name: the file
// extension is stripped, separators become spaces, and words are title-cased.
func SectionTitle(name string) string {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	title = strings.NewReplacer("_", " ", "-", " ").Replace(title)
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "Untitled"
	}
	return titleCaser.String(title)
}
