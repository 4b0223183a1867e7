package cleaning

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// UnknownEmploymentType is assigned when the employment type is missing or
// outside the closed set.
const UnknownEmploymentType = "UNKNOWN"

var employmentTypes = map[string]string{
	"full-time":  "FULL_TIME",
	"full time":  "FULL_TIME",
	"full_time":  "FULL_TIME",
	"fulltime":   "FULL_TIME",
	"part-time":  "PART_TIME",
	"part time":  "PART_TIME",
	"part_time":  "PART_TIME",
	"parttime":   "PART_TIME",
	"contract":   "CONTRACT",
	"contractor": "CONTRACT",
	"intern":     "INTERN",
	"internship": "INTERN",
	"temporary":  "TEMP",
	"temp":       "TEMP",
}

// JobStats counts what CleanJobs changed.
type JobStats struct {
	Input                 int `json:"input"`
	UnknownEmploymentType int `json:"unknown_employment_type"`
	SwappedSalaryRanges   int `json:"swapped_salary_ranges"`
	StrippedMarkup        int `json:"stripped_markup"`
}

// NormalizeText trims surrounding whitespace and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmploymentType maps free-form employment types onto FULL_TIME,
// PART_TIME, CONTRACT, INTERN, TEMP or UnknownEmploymentType.
func NormalizeEmploymentType(s string) string {
	if t, ok := employmentTypes[NormalizeText(s)]; ok {
		return t
	}
	return UnknownEmploymentType
}

// NormalizeDescription drops HTML markup and collapses whitespace. Adjacent
// text nodes are separated by a single space; entities are decoded.
func NormalizeDescription(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			*parts = append(*parts, c.Text())
		case "#comment":
		default:
			collectText(c, parts)
		}
	})
}

// NormalizeSalaryRange returns the range ordered so min <= max. Either bound
// may be nil.
func NormalizeSalaryRange(minSalary, maxSalary *float64) (*float64, *float64, bool) {
	if minSalary != nil && maxSalary != nil && *minSalary > *maxSalary {
		return maxSalary, minSalary, true
	}
	return minSalary, maxSalary, false
}

// CleanJobs normalizes job records that already passed raw validation. Job
// ids are trimmed with NormalizeID so they join with cleaned interactions.
// The input is not modified.
func CleanJobs(jobs []types.Job) ([]types.Job, JobStats) {
	stats := JobStats{Input: len(jobs)}
	out := make([]types.Job, len(jobs))

	for i, job := range jobs {
		job.JobID = NormalizeID(job.JobID)
		job.Title = NormalizeText(job.Title)
		job.EmployerName = NormalizeText(job.EmployerName)
		job.Publisher = NormalizeText(job.Publisher)
		job.Location = NormalizeText(job.Location)
		job.City = NormalizeText(job.City)
		job.State = NormalizeText(job.State)
		job.Country = NormalizeText(job.Country)

		description := NormalizeDescription(job.Description)
		if description != strings.Join(strings.Fields(job.Description), " ") {
			stats.StrippedMarkup++
		}
		job.Description = description

		job.EmploymentType = NormalizeEmploymentType(job.EmploymentType)
		if job.EmploymentType == UnknownEmploymentType {
			stats.UnknownEmploymentType++
		}

		if job.IsRemote == nil {
			remote := false
			job.IsRemote = &remote
		}

		var swapped bool
		job.MinSalary, job.MaxSalary, swapped = NormalizeSalaryRange(job.MinSalary, job.MaxSalary)
		if swapped {
			stats.SwappedSalaryRanges++
		}
		out[i] = job
	}
	return out, stats
}
