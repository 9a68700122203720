package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/roleguard/pkg/relation"
	"github.com/jihwankim/roleguard/pkg/reporting"
	"github.com/jihwankim/roleguard/pkg/role"
	"github.com/jihwankim/roleguard/pkg/rolespec"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Args:  cobra.NoArgs,
	Short: "Evaluate a role against a batch of users",
	Long:  `Loads a role definition and a user batch from YAML and evaluates access for each user.`,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("role", "", "path to role definition YAML")
	checkCmd.Flags().String("users", "", "path to user batch YAML")
	checkCmd.Flags().StringArray("set", []string{}, "override role values (e.g., --set logic=\"0 OR 1\")")
	checkCmd.Flags().String("format", "text", "output format (text, json, tui)")
	checkCmd.Flags().String("report-dir", "", "directory to persist a JSON evaluation report into (default ./eval-reports)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rolePath, _ := cmd.Flags().GetString("role")
	usersPath, _ := cmd.Flags().GetString("users")
	setFlags, _ := cmd.Flags().GetStringArray("set")
	outputFormat, _ := cmd.Flags().GetString("format")
	reportDir, _ := cmd.Flags().GetString("report-dir")

	if rolePath == "" {
		return fmt.Errorf("--role flag is required")
	}
	if usersPath == "" {
		return fmt.Errorf("--users flag is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("roleguard starting", "version", version)

	p := rolespec.New(nil)
	doc, err := p.ParseRoleFile(rolePath)
	if err != nil {
		return fmt.Errorf("failed to parse role: %w", err)
	}

	if len(setFlags) > 0 {
		overrides, err := rolespec.ParseOverrides(setFlags)
		if err != nil {
			return fmt.Errorf("failed to parse overrides: %w", err)
		}
		if err := rolespec.ApplyOverrides(doc, overrides); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
		logger.Debug("applied overrides", "count", len(overrides))
	}

	users, err := p.ParseUserBatchFile(usersPath)
	if err != nil {
		return fmt.Errorf("failed to parse user batch: %w", err)
	}

	r, err := rolespec.ToRole(doc)
	if err != nil {
		return fmt.Errorf("failed to build role: %w", err)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize plugin runtime: %w", err)
	}
	defer rt.Close()

	roleLogger := logger.WithRole(r.ID)
	progress := reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), roleLogger)
	progress.ReportStateTransition("starting", "evaluating")

	start := time.Now()
	verdicts, perRequirement, checkErr := rt.evaluator.CheckBatchDetailed(*r, http.DefaultClient, users)

	report := buildReport(r, verdicts, perRequirement, start, checkErr)

	if reportDir == "" {
		reportDir = "./eval-reports"
	}
	storage, err := reporting.NewStorage(reportDir, 50, logger)
	if err != nil {
		logger.Warn("failed to initialize report storage", "error", err)
	} else if _, err := storage.SaveReport(report); err != nil {
		logger.Warn("failed to save report", "error", err)
	}

	progress.ReportEvaluationCompleted(report)

	if checkErr != nil {
		return fmt.Errorf("role evaluation failed: %w", checkErr)
	}
	return nil
}

func buildReport(r *role.Role, verdicts []bool, perRequirement [][]bool, start time.Time, evalErr error) *reporting.EvaluationReport {
	end := time.Now()

	status := reporting.StatusCompleted
	var errs []string
	if evalErr != nil {
		status = reporting.StatusFailed
		errs = append(errs, evalErr.Error())
	}

	reqInfos := make([]reporting.RequirementInfo, len(r.Requirements))
	for i, req := range r.Requirements {
		reqInfos[i] = reporting.RequirementInfo{
			Prefix:      req.Prefix,
			IdentityTag: req.IdentityTag,
			Relation:    relationString(req.Relation),
		}
	}

	verdictInfos := make([]reporting.UserVerdict, len(verdicts))
	for i := range verdicts {
		var perUser []bool
		if i < len(perRequirement) {
			perUser = perRequirement[i]
		}
		verdictInfos[i] = reporting.UserVerdict{
			UserIndex:    i,
			Access:       verdicts[i],
			Requirements: perUser,
		}
	}

	return &reporting.EvaluationReport{
		EvalID:       fmt.Sprintf("eval-%d", start.UnixNano()),
		RoleID:       r.ID,
		StartTime:    start,
		EndTime:      end,
		Duration:     end.Sub(start).String(),
		Status:       status,
		Success:      evalErr == nil,
		Logic:        r.Logic,
		Requirements: reqInfos,
		Verdicts:     verdictInfos,
		Errors:       errs,
	}
}

func relationString(rel relation.Relation[float64]) string {
	switch rel.Kind {
	case relation.EqualTo:
		return fmt.Sprintf("eq(%g)", rel.Lo)
	case relation.GreaterThan:
		return fmt.Sprintf("gt(%g)", rel.Lo)
	case relation.GreaterOrEqualTo:
		return fmt.Sprintf("gte(%g)", rel.Lo)
	case relation.LessThan:
		return fmt.Sprintf("lt(%g)", rel.Lo)
	case relation.LessOrEqualTo:
		return fmt.Sprintf("lte(%g)", rel.Lo)
	case relation.Between:
		return fmt.Sprintf("between(%g,%g)", rel.Lo, rel.Hi)
	case relation.BetweenInclusive:
		return fmt.Sprintf("between_inclusive(%g,%g)", rel.Lo, rel.Hi)
	default:
		return "unknown"
	}
}
