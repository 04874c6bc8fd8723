package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gpa-calculator/internal/gpa"
)

const exitValidation = 2

func newCalcCommand() *cobra.Command {
	var (
		courses    []string
		file       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute a GPA from the command line",
		Long: `Compute a credit-weighted GPA.

Courses are given as --course NAME:GPA:CREDITS (the name is optional, so
--course 3.7:4 works too) or read from a YAML or JSON file with --file.`,
		Example: `  gpa_service calc --course Math:4.0:3 --course Art:2.0:3
  gpa_service calc --file courses.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []gpa.CourseEntry
			if file != "" {
				fromFile, err := readCoursesFile(file)
				if err != nil {
					return err
				}
				entries = append(entries, fromFile...)
			}
			for _, arg := range courses {
				entry, err := parseCourseFlag(arg)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			return runCalc(cmd.OutOrStdout(), entries, jsonOutput)
		},
	}
	cmd.Flags().StringArrayVarP(&courses, "course", "c", nil, "course as NAME:GPA:CREDITS (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file listing courses")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func parseCourseFlag(arg string) (gpa.CourseEntry, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 {
		return gpa.CourseEntry{}, fmt.Errorf("course %q: want NAME:GPA:CREDITS or GPA:CREDITS", arg)
	}
	n := len(parts)
	return gpa.CourseEntry{
		Name:        strings.Join(parts[:n-2], ":"),
		GPAText:     parts[n-2],
		CreditsText: parts[n-1],
	}, nil
}

// readCoursesFile accepts either a bare list of courses or a document with a
// top-level "courses" key. JSON parses as YAML.
func readCoursesFile(path string) ([]gpa.CourseEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read courses file: %w", err)
	}

	var list []gpa.CourseEntry
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Courses []gpa.CourseEntry `yaml:"courses"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse courses file: %w", err)
	}
	return doc.Courses, nil
}

type calcOutput struct {
	GPA                string  `json:"gpa"`
	TotalQualityPoints float64 `json:"total_quality_points"`
	TotalCreditHours   float64 `json:"total_credit_hours"`
}

type calcError struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func runCalc(w io.Writer, entries []gpa.CourseEntry, jsonOutput bool) error {
	res, err := gpa.Compute(entries)
	verr, invalid := gpa.AsValidationError(err)
	if err != nil && !invalid {
		return err
	}

	if jsonOutput {
		var out interface{} = calcOutput{GPA: res.Text, TotalQualityPoints: res.QualityPoints, TotalCreditHours: res.CreditHours}
		if invalid {
			out = calcError{Error: verr.Message(), Kind: verr.Kind.String(), Detail: verr.Error()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out); encErr != nil {
			return encErr
		}
	} else if !invalid {
		fmt.Fprintf(w, "GPA: %s (%g quality points over %g credit hours)\n", res.Text, res.QualityPoints, res.CreditHours)
	}

	if invalid {
		return &exitError{code: exitValidation, err: fmt.Errorf("%s: %w", verr.Message(), err)}
	}
	return nil
}
