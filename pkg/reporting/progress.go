package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports role evaluation progress
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current evaluation state
func (pr *ProgressReporter) ReportState(state LiveEvalState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportStateTransition reports a state transition
func (pr *ProgressReporter) ReportStateTransition(from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "state_transition",
			"from_state": from,
			"to_state":   to,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔄 State Transition: %s → %s\n", from, to)
	default:
		fmt.Printf("[STATE] %s → %s\n", from, to)
	}
}

// ReportRequirementChecked reports that a requirement finished evaluating
// against its identity batch.
func (pr *ProgressReporter) ReportRequirementChecked(req RequirementInfo, matched int, total int) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":       "requirement_checked",
			"requirement": req,
			"matched":     matched,
			"total":       total,
			"timestamp":   time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔎 Requirement prefix=%d: %d/%d identities matched\n", req.Prefix, matched, total)
	default:
		fmt.Printf("[REQUIREMENT] prefix=%d %s: %d/%d matched\n", req.Prefix, req.Relation, matched, total)
	}
}

// ReportPluginLoadFailure reports a plugin that failed to load or respond.
func (pr *ProgressReporter) ReportPluginLoadFailure(prefix uint64, err error) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "plugin_load_failed",
			"prefix":    prefix,
			"error":     err.Error(),
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔴 Plugin prefix=%d failed to load: %v\n", prefix, err)
	default:
		fmt.Printf("[PLUGIN] prefix=%d load failed: %v\n", prefix, err)
	}
}

// ReportEvaluationCompleted reports evaluation completion
func (pr *ProgressReporter) ReportEvaluationCompleted(report *EvaluationReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "evaluation_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printEvalSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format
func (pr *ProgressReporter) reportText(state LiveEvalState) {
	elapsed := time.Since(state.StartTime).Round(time.Second)
	fmt.Printf("[%s] %s | Elapsed: %s\n",
		time.Now().Format("15:04:05"),
		state.State,
		elapsed,
	)

	if state.TotalRequirements > 0 {
		fmt.Printf("  Requirements: %d/%d\n", state.CompletedRequirements, state.TotalRequirements)
	}
	if state.TotalUsers > 0 {
		fmt.Printf("  Users: %d/%d\n", state.UsersProcessed, state.TotalUsers)
	}
}

// reportJSON outputs progress in JSON format
func (pr *ProgressReporter) reportJSON(state LiveEvalState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("Failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format
func (pr *ProgressReporter) reportTUI(state LiveEvalState) {
	pr.clearScreen()

	// Header
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   Role Evaluation: %s\n", state.RoleID)
	fmt.Printf("   Eval ID: %s\n", state.EvalID)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	// Status
	fmt.Printf("📊 State: %s\n", state.State)
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Println()

	if state.TotalRequirements > 0 {
		fmt.Printf("🔎 Requirements: %d/%d checked\n", state.CompletedRequirements, state.TotalRequirements)
	}
	if state.TotalUsers > 0 {
		fmt.Printf("👤 Users: %d/%d processed\n", state.UsersProcessed, state.TotalUsers)
	}
	fmt.Println()

	fmt.Println(strings.Repeat("─", 80))
}

// printEvalSummary prints an evaluation summary in TUI format
func (pr *ProgressReporter) printEvalSummary(report *EvaluationReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   EVALUATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	statusIcon := "✅"
	statusText := "COMPLETED"
	if !report.Success {
		statusIcon = "❌"
		statusText = "FAILED"
	}
	if report.Status == StatusStopped {
		statusIcon = "🛑"
		statusText = "STOPPED"
	}

	fmt.Printf("%s Evaluation %s\n", statusIcon, statusText)
	fmt.Printf("   Role: %s\n", report.RoleID)
	fmt.Printf("   Eval ID: %s\n", report.EvalID)
	fmt.Printf("   Duration: %s\n", report.Duration)
	fmt.Println()

	if len(report.Requirements) > 0 {
		fmt.Printf("🔎 Requirements (%d):\n", len(report.Requirements))
		for _, req := range report.Requirements {
			fmt.Printf("   • prefix=%d identity=%s relation=%s\n", req.Prefix, req.IdentityTag, req.Relation)
		}
		fmt.Println()
	}

	if len(report.Verdicts) > 0 {
		granted := 0
		for _, v := range report.Verdicts {
			if v.Access {
				granted++
			}
		}
		fmt.Printf("👤 Verdicts: %d/%d users granted access\n", granted, len(report.Verdicts))
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 80))
}

// printTextSummary prints an evaluation summary in plain text format
func (pr *ProgressReporter) printTextSummary(report *EvaluationReport) {
	status := "COMPLETED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	fmt.Printf("\n[EVALUATION SUMMARY] %s\n", status)
	fmt.Printf("  Role: %s\n", report.RoleID)
	fmt.Printf("  Eval ID: %s\n", report.EvalID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Requirements: %d\n", len(report.Requirements))

	if len(report.Verdicts) > 0 {
		granted := 0
		for _, v := range report.Verdicts {
			if v.Access {
				granted++
			}
		}
		fmt.Printf("  Verdicts: %d/%d granted\n", granted, len(report.Verdicts))
	}
	fmt.Println()
}

// clearScreen clears the terminal screen
func (pr *ProgressReporter) clearScreen() {
	// ANSI escape code to clear screen and move cursor to top
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line
func (pr *ProgressReporter) clearLine() {
	// ANSI escape code to clear current line
	fmt.Print("\033[K")
}
