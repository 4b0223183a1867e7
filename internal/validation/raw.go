package validation

import (
	"strconv"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// Dataset names used in validation errors.
const (
	DatasetJobs         = "jobs_raw"
	DatasetUsers        = "users_raw"
	DatasetInteractions = "interactions_raw"
)

// ValidateReferentialIntegrity requires every interaction to reference a known
// user and a known job. Offending interaction ids are listed in row order.
func ValidateReferentialIntegrity(interactions []types.Interaction, users []types.User, jobs []types.Job, dataset string) error {
	userIDs := make(map[string]struct{}, len(users))
	for _, u := range users {
		userIDs[u.UserID] = struct{}{}
	}
	jobIDs := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		jobIDs[j.JobID] = struct{}{}
	}

	var missingUsers, missingJobs []string
	for i, it := range interactions {
		ref := it.InteractionID
		if ref == "" {
			ref = "row " + strconv.Itoa(i)
		}
		if _, ok := userIDs[it.UserID]; !ok {
			missingUsers = append(missingUsers, ref)
		}
		if _, ok := jobIDs[it.JobID]; !ok {
			missingJobs = append(missingJobs, ref)
		}
	}
	if len(missingUsers) > 0 || len(missingJobs) > 0 {
		return &ReferentialIntegrityError{Dataset: dataset, MissingUsers: missingUsers, MissingJobs: missingJobs}
	}
	return nil
}

// Report summarizes a successful raw validation.
type Report struct {
	Jobs           int  `json:"jobs"`
	Users          int  `json:"users"`
	Interactions   int  `json:"interactions"`
	SynthesizedIDs bool `json:"synthesized_ids"`
}

// ValidateRaw runs the contracts on jobs, then users, then interactions and
// stops at the first failing dataset. When no interaction carries an id, ids
// are synthesized from the row index. The returned slice holds the
// interactions with their final ids; the input is not modified.
func ValidateRaw(jobs []types.Job, users []types.User, interactions []types.Interaction) ([]types.Interaction, *Report, error) {
	if err := ValidateNonEmpty(jobs, DatasetJobs); err != nil {
		return nil, nil, err
	}
	if err := ValidateRecords(jobs, DatasetJobs); err != nil {
		return nil, nil, err
	}
	if err := ValidatePrimaryKey(jobs, DatasetJobs, "job_id", func(j types.Job) string { return j.JobID }); err != nil {
		return nil, nil, err
	}

	if err := ValidateNonEmpty(users, DatasetUsers); err != nil {
		return nil, nil, err
	}
	if err := ValidateRecords(users, DatasetUsers); err != nil {
		return nil, nil, err
	}
	if err := ValidatePrimaryKey(users, DatasetUsers, "user_id", func(u types.User) string { return u.UserID }); err != nil {
		return nil, nil, err
	}

	out, synthesized := withInteractionIDs(interactions)
	if err := ValidateNonEmpty(out, DatasetInteractions); err != nil {
		return nil, nil, err
	}
	if err := ValidateRecords(out, DatasetInteractions); err != nil {
		return nil, nil, err
	}
	if err := ValidatePrimaryKey(out, DatasetInteractions, "interaction_id", func(i types.Interaction) string { return i.InteractionID }); err != nil {
		return nil, nil, err
	}
	if err := ValidateReferentialIntegrity(out, users, jobs, DatasetInteractions); err != nil {
		return nil, nil, err
	}

	return out, &Report{
		Jobs:           len(jobs),
		Users:          len(users),
		Interactions:   len(out),
		SynthesizedIDs: synthesized,
	}, nil
}

// withInteractionIDs copies interactions and fills ids from the row index
// when the whole column is absent.
func withInteractionIDs(interactions []types.Interaction) ([]types.Interaction, bool) {
	out := make([]types.Interaction, len(interactions))
	copy(out, interactions)
	for _, it := range out {
		if it.InteractionID != "" {
			return out, false
		}
	}
	for i := range out {
		out[i].InteractionID = strconv.Itoa(i)
	}
	return out, len(out) > 0
}
