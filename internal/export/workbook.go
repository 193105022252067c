// Package export renders an assembled curriculum as an XLSX workbook so
// reviewers can inspect the outline and question banks outside the app.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courseforge/courseforge/internal/curriculum"
)

const (
	outlineSheet   = "Outline"
	questionsSheet = "Questions"
)

// WriteWorkbook renders the curriculum into an XLSX workbook on w. The
// Outline sheet lists modules and sections; the Questions sheet lists every
// assessment question with its kind, options, correct answer, and points.
func WriteWorkbook(c *curriculum.Curriculum, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outlineSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return fmt.Errorf("create questions sheet: %w", err)
	}

	if err := writeOutline(f, c); err != nil {
		return err
	}
	if err := writeQuestions(f, c); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOutline(f *excelize.File, c *curriculum.Curriculum) error {
	header := []any{"Module", "Section", "Type", "Duration (min)", "Difficulty", "Key Points"}
	if err := setRow(f, outlineSheet, 1, header); err != nil {
		return err
	}

	row := 2
	for _, m := range c.Modules {
		moduleRow := []any{m.Title, "", "", m.DurationMinutes, m.Difficulty, strings.Join(m.LearningObjectives, "; ")}
		if err := setRow(f, outlineSheet, row, moduleRow); err != nil {
			return err
		}
		row++
		for _, sec := range m.Sections {
			secRow := []any{m.Title, sec.Title, string(sec.Type), sec.EstimatedDurationMinutes, "", strings.Join(sec.KeyPoints, "; ")}
			if err := setRow(f, outlineSheet, row, secRow); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeQuestions(f *excelize.File, c *curriculum.Curriculum) error {
	header := []any{"Assessment", "Role", "Question", "Kind", "Options", "Correct", "Points"}
	if err := setRow(f, questionsSheet, 1, header); err != nil {
		return err
	}

	row := 2
	for _, m := range c.Modules {
		for _, a := range m.Assessments {
			var err error
			row, err = writeAssessment(f, a, row)
			if err != nil {
				return err
			}
		}
	}
	if c.FinalExam != nil {
		if _, err := writeAssessment(f, *c.FinalExam, row); err != nil {
			return err
		}
	}
	return nil
}

func writeAssessment(f *excelize.File, a curriculum.Assessment, row int) (int, error) {
	for _, q := range a.Questions {
		cells := []any{
			a.Title,
			string(a.Role),
			q.Text,
			string(q.Kind),
			strings.Join(q.Options, " | "),
			correctLabel(q),
			q.Points,
		}
		if err := setRow(f, questionsSheet, row, cells); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

// correctLabel renders the correct answer as option text when resolvable,
// falling back to raw indices.
func correctLabel(q curriculum.Question) string {
	if q.Kind == curriculum.KindMultipleCorrect {
		labels := make([]string, 0, len(q.Correct.Indices))
		for _, i := range q.Correct.Indices {
			labels = append(labels, optionLabel(q.Options, i))
		}
		return strings.Join(labels, " | ")
	}
	return optionLabel(q.Options, q.Correct.Index)
}

func optionLabel(options []string, i int) string {
	if i >= 0 && i < len(options) {
		return options[i]
	}
	return fmt.Sprintf("#%d", i)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d on %s: %w", row, sheet, err)
	}
	return nil
}
