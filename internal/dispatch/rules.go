package dispatch

// rules.go defines the ordered routing conditions.
//
// Five rules, six conditions (the Dean's leave/absent report is distinct
// from the Dean's previous-day report). Each condition pairs a recipient
// configuration lookup with a record-subset policy:
//
//	1   Dean                         previous day, no status-only records
//	1B  Dean                         leave/absent rows, any date
//	2   MS + Deputy MS               current day, Tutor NG / Junior Resident NG only
//	3   leadership union             current day, all records
//	4   each active HOD              current day, division matches department
//
// Missing configuration or an empty record subset is a skip, never a failure.

import (
	"context"
	"fmt"

	"github.com/medicampus/attendmail/internal/ingest"
	"github.com/medicampus/attendmail/internal/recipients"
	"github.com/medicampus/attendmail/internal/report"
)

// leadershipRoles receive the combined current-day report (rule 3).
var leadershipRoles = []recipients.Role{
	recipients.RoleDean,
	recipients.RoleMedicalDirector,
	recipients.RoleMedicalRepresentative,
	recipients.RoleMedicalSuperintendent,
	recipients.RoleHRHead,
}

// tutorDesignations select the rule-2 subset.
var tutorDesignations = []string{"tutor ng", "junior resident ng"}

func (o *Orchestrator) conditions(records []ingest.Record, uploaded ingest.Format) []condition {
	today := o.now()
	yesterday := today.AddDate(0, 0, -1)
	dateStr := today.Format("02-01-2006")
	prevDateStr := yesterday.Format("02-01-2006")

	return []condition{
		{
			name:  "dean_previous_day",
			label: "Dean",
			run: func(ctx context.Context) (conditionResult, error) {
				configs, err := o.configs.ByRoles(ctx, recipients.RoleDean)
				if err != nil {
					return conditionResult{}, fmt.Errorf("dean config lookup: %w", err)
				}
				if len(configs) == 0 {
					return skip("no Dean configuration found"), nil
				}
				subset := report.DateFilter{Day: yesterday, IncludeStatusOnly: false}.Apply(records)
				if len(subset) == 0 {
					return skip("no attendance data for previous date"), nil
				}
				emails, err := o.sendReport(ctx, sendParams{
					emails:        recipients.MergeEmails(configs),
					recipientType: "Dean",
					subject:       "Attendance Report - " + prevDateStr,
					sheetName:     "Dean Report",
					records:       subset,
					uploaded:      uploaded,
				})
				return conditionResult{emails: emails}, err
			},
		},
		{
			name:  "dean_leave_absent",
			label: "Dean",
			run: func(ctx context.Context) (conditionResult, error) {
				configs, err := o.configs.ByRoles(ctx, recipients.RoleDean)
				if err != nil {
					return conditionResult{}, fmt.Errorf("dean config lookup: %w", err)
				}
				if len(configs) == 0 {
					return skip("no Dean configuration found"), nil
				}
				subset := report.FilterLeaveAbsent(records)
				if len(subset) == 0 {
					return skip("no leave/absent data"), nil
				}
				emails, err := o.sendReport(ctx, sendParams{
					emails:        recipients.MergeEmails(configs),
					recipientType: "Dean",
					subject:       "Leave-Absent Report - " + dateStr,
					sheetName:     "Leave Absent",
					records:       subset,
					uploaded:      uploaded,
				})
				return conditionResult{emails: emails}, err
			},
		},
		{
			name:  "ms_tutor_current_day",
			label: "Medical Superintendent",
			run: func(ctx context.Context) (conditionResult, error) {
				configs, err := o.configs.ByRoles(ctx,
					recipients.RoleMedicalSuperintendent, recipients.RoleDeputyMS)
				if err != nil {
					return conditionResult{}, fmt.Errorf("ms config lookup: %w", err)
				}
				if len(configs) == 0 {
					return skip("no Medical Superintendent configuration found"), nil
				}
				subset := report.FilterDesignation(
					report.DateFilter{Day: today, IncludeStatusOnly: true}.Apply(records),
					tutorDesignations...)
				if len(subset) == 0 {
					return skip("no TUTOR NG/Junior Resident NG data for current date"), nil
				}
				emails, err := o.sendReport(ctx, sendParams{
					emails:        recipients.MergeEmails(configs),
					recipientType: "Medical Superintendent",
					subject:       "Tutor NG Attendance Report - " + dateStr,
					sheetName:     "Tutor NG",
					records:       subset,
					uploaded:      uploaded,
				})
				return conditionResult{emails: emails}, err
			},
		},
		{
			name:  "leadership_current_day",
			label: "Leadership",
			run: func(ctx context.Context) (conditionResult, error) {
				configs, err := o.configs.ByRoles(ctx, leadershipRoles...)
				if err != nil {
					return conditionResult{}, fmt.Errorf("leadership config lookup: %w", err)
				}
				if len(configs) == 0 {
					return skip("no leadership configuration found"), nil
				}
				subset := report.DateFilter{Day: today, IncludeStatusOnly: true}.Apply(records)
				if len(subset) == 0 {
					return skip("no data for current date"), nil
				}
				emails, err := o.sendReport(ctx, sendParams{
					emails:        recipients.MergeEmails(configs),
					recipientType: "Leadership",
					subject:       "Attendance Report - " + dateStr,
					sheetName:     "Attendance",
					records:       subset,
					uploaded:      uploaded,
				})
				return conditionResult{emails: emails}, err
			},
		},
		{
			name:  "hod_current_day",
			label: "HOD",
			run: func(ctx context.Context) (conditionResult, error) {
				hods, err := o.configs.ActiveHODs(ctx)
				if err != nil {
					return conditionResult{}, fmt.Errorf("hod config lookup: %w", err)
				}
				if len(hods) == 0 {
					return skip("no HOD configurations found"), nil
				}

				daySubset := report.DateFilter{Day: today, IncludeStatusOnly: true}.Apply(records)

				var res conditionResult
				for _, hod := range hods {
					subset := report.FilterDivision(daySubset, hod.Department)
					if len(subset) == 0 {
						// per-department skip; the condition itself continues
						res.notes = append(res.notes,
							fmt.Sprintf("no data for department %s", hod.Department))
						continue
					}
					emails, err := o.sendReport(ctx, sendParams{
						emails:        hod.Emails,
						recipientType: "HOD",
						department:    hod.Department,
						subject: fmt.Sprintf("Attendance Report (%s) - %s",
							hod.Department, dateStr),
						sheetName: hod.Department,
						records:   subset,
						uploaded:  uploaded,
					})
					res.emails = append(res.emails, emails...)
					if err != nil {
						return res, err
					}
				}
				if len(res.emails) == 0 {
					res.skipped = true
					res.reason = "no matching records for any department"
				}
				return res, nil
			},
		},
	}
}

func skip(reason string) conditionResult {
	return conditionResult{skipped: true, reason: reason}
}
