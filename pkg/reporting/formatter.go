package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from evaluation data
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{
		logger: logger,
	}
}

// GenerateReport generates a report in the specified format
func (f *Formatter) GenerateReport(report *EvaluationReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		// Already handled by storage
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// generateHTMLReport generates an HTML report
func (f *Formatter) generateHTMLReport(report *EvaluationReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(access bool) string {
			if access {
				return "pass"
			}
			return "fail"
		},
		"statusIcon": func(access bool) string {
			if access {
				return "✅"
			}
			return "❌"
		},
	}).Parse(htmlTemplate)

	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

// generateTextReport generates a plain text report
func (f *Formatter) generateTextReport(report *EvaluationReport, outputPath string) error {
	var buf bytes.Buffer

	// Header
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   ROLE EVALUATION REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	// Evaluation Summary
	status := "COMPLETED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	buf.WriteString("EVALUATION SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", status))
	buf.WriteString(fmt.Sprintf("Eval ID:      %s\n", report.EvalID))
	buf.WriteString(fmt.Sprintf("Role:         %s\n", report.RoleID))
	buf.WriteString(fmt.Sprintf("Logic:        %s\n", report.Logic))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	// Requirements
	if len(report.Requirements) > 0 {
		buf.WriteString("REQUIREMENTS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, req := range report.Requirements {
			buf.WriteString(fmt.Sprintf("%d. prefix=%d\n", i, req.Prefix))
			buf.WriteString(fmt.Sprintf("   Identity:  %s\n", req.IdentityTag))
			buf.WriteString(fmt.Sprintf("   Relation:  %s\n", req.Relation))
			buf.WriteString("\n")
		}
	}

	// Verdicts
	if len(report.Verdicts) > 0 {
		granted := 0
		for _, v := range report.Verdicts {
			if v.Access {
				granted++
			}
		}

		buf.WriteString("VERDICTS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(fmt.Sprintf("Summary: %d/%d users granted access\n\n", granted, len(report.Verdicts)))

		for _, v := range report.Verdicts {
			status := "DENY"
			if v.Access {
				status = "ALLOW"
			}
			buf.WriteString(fmt.Sprintf("user[%d]: [%s] requirements=%v\n", v.UserIndex, status, v.Requirements))
		}
		buf.WriteString("\n")
	}

	// Errors
	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	// Footer
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	// Write to file
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("Text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report for multiple evaluation runs
func (f *Formatter) CompareReports(reports []*EvaluationReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer

	// Header
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   ROLE EVALUATION COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	// Sort by start time
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})

	// Summary table
	buf.WriteString("EVALUATION SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("%-20s %-15s %-12s %-10s %-10s\n",
		"Eval ID", "Role", "Status", "Duration", "Granted"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	for _, report := range reports {
		status := "COMPLETED"
		if !report.Success {
			status = "FAILED"
		}
		granted := 0
		total := len(report.Verdicts)
		for _, v := range report.Verdicts {
			if v.Access {
				granted++
			}
		}

		buf.WriteString(fmt.Sprintf("%-20s %-15s %-12s %-10s %d/%d\n",
			report.EvalID[:min(20, len(report.EvalID))],
			report.RoleID[:min(15, len(report.RoleID))],
			status,
			report.Duration,
			granted,
			total,
		))
	}
	buf.WriteString("\n")

	// Requirement outcome comparison
	buf.WriteString("REQUIREMENT PREFIXES SEEN\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	prefixesSeen := make(map[uint64]bool)
	for _, report := range reports {
		for _, req := range report.Requirements {
			prefixesSeen[req.Prefix] = true
		}
	}

	prefixes := make([]uint64, 0, len(prefixesSeen))
	for p := range prefixesSeen {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return prefixes[i] < prefixes[j] })

	for _, prefix := range prefixes {
		buf.WriteString(fmt.Sprintf("\nprefix=%d:\n", prefix))
		for _, report := range reports {
			found := false
			for _, req := range report.Requirements {
				if req.Prefix == prefix {
					found = true
					break
				}
			}
			if found {
				buf.WriteString(fmt.Sprintf("  ✓ [%s] present (%s)\n",
					report.EvalID[:min(12, len(report.EvalID))],
					report.StartTime.Format("15:04:05"),
				))
			} else {
				buf.WriteString(fmt.Sprintf("  - [%s] not present\n",
					report.EvalID[:min(12, len(report.EvalID))]))
			}
		}
	}
	buf.WriteString("\n")

	// Write to file
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}

	f.logger.Info("Comparison report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on evaluation report and format
func GetReportPath(report *EvaluationReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	ext := string(format)
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.EvalID, ext)
	return filepath.Join(outputDir, filename)
}

// Helper function
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// HTML template for report generation
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Role Evaluation Report - {{.EvalID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2 {
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 8px 8px 0 0;
            margin: -30px -30px 30px -30px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            margin-left: 10px;
        }
        .status.pass {
            background-color: #27ae60;
            color: white;
        }
        .status.fail {
            background-color: #e74c3c;
            color: white;
        }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-box {
            background-color: #ecf0f1;
            padding: 15px;
            border-radius: 4px;
        }
        .info-label {
            font-weight: bold;
            color: #7f8c8d;
            font-size: 0.9em;
            margin-bottom: 5px;
        }
        .info-value {
            font-size: 1.1em;
            color: #2c3e50;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
        }
        th, td {
            padding: 12px;
            text-align: left;
            border-bottom: 1px solid #ddd;
        }
        th {
            background-color: #3498db;
            color: white;
        }
        tr:hover {
            background-color: #f5f5f5;
        }
        .verdict {
            margin: 15px 0;
            padding: 15px;
            border-left: 4px solid;
            background-color: #f9f9f9;
        }
        .verdict.pass {
            border-left-color: #27ae60;
        }
        .verdict.fail {
            border-left-color: #e74c3c;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Role Evaluation Report</h1>
            <p>{{.RoleID}}</p>
            <p>Eval ID: {{.EvalID}}</p>
        </div>

        <h2>Summary<span class="status {{statusClass .Success}}">{{if .Success}}COMPLETED{{else}}FAILED{{end}}</span></h2>
        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Start Time</div>
                <div class="info-value">{{formatTime .StartTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">End Time</div>
                <div class="info-value">{{formatTime .EndTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Duration</div>
                <div class="info-value">{{.Duration}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Logic</div>
                <div class="info-value">{{.Logic}}</div>
            </div>
        </div>

        {{if .Requirements}}
        <h2>Requirements</h2>
        <table>
            <thead>
                <tr>
                    <th>Prefix</th>
                    <th>Identity Tag</th>
                    <th>Relation</th>
                </tr>
            </thead>
            <tbody>
                {{range .Requirements}}
                <tr>
                    <td>{{.Prefix}}</td>
                    <td>{{.IdentityTag}}</td>
                    <td>{{.Relation}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .Verdicts}}
        <h2>Verdicts</h2>
        {{range .Verdicts}}
        <div class="verdict {{statusClass .Access}}">
            <strong>{{statusIcon .Access}} user[{{.UserIndex}}]</strong>
            <span>requirements: {{.Requirements}}</span>
        </div>
        {{end}}
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>
            {{range .Errors}}
            <li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">
            Generated by roleguard • {{formatTime .EndTime}}
        </p>
    </div>
</body>
</html>
`
