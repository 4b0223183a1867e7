package types

// Job is a job posting as delivered by the jobs ingestion stage.
type Job struct {
	JobID          string   `json:"job_id" csv:"job_id" parquet:"job_id" validate:"required"`
	Title          string   `json:"job_title" csv:"job_title" parquet:"job_title" validate:"required"`
	Description    string   `json:"job_description" csv:"job_description" parquet:"job_description" validate:"required"`
	EmployerName   string   `json:"employer_name" csv:"employer_name" parquet:"employer_name" validate:"required"`
	Publisher      string   `json:"job_publisher" csv:"job_publisher" parquet:"job_publisher" validate:"required"`
	EmploymentType string   `json:"job_employment_type,omitempty" csv:"job_employment_type" parquet:"job_employment_type,optional"`
	Location       string   `json:"job_location,omitempty" csv:"job_location" parquet:"job_location,optional"`
	City           string   `json:"job_city,omitempty" csv:"job_city" parquet:"job_city,optional"`
	State          string   `json:"job_state,omitempty" csv:"job_state" parquet:"job_state,optional"`
	Country        string   `json:"job_country,omitempty" csv:"job_country" parquet:"job_country,optional"`
	IsRemote       *bool    `json:"job_is_remote,omitempty" csv:"job_is_remote" parquet:"job_is_remote,optional"`
	MinSalary      *float64 `json:"job_min_salary,omitempty" csv:"job_min_salary" parquet:"job_min_salary,optional" validate:"omitempty,gte=0"`
	MaxSalary      *float64 `json:"job_max_salary,omitempty" csv:"job_max_salary" parquet:"job_max_salary,optional" validate:"omitempty,gte=0"`
}

// User is a candidate profile. List columns are not representable in CSV and
// are skipped by that codec.
type User struct {
	UserID            string   `json:"user_id" csv:"user_id" parquet:"user_id" validate:"required"`
	PrimaryRoles      []string `json:"primary_roles" csv:"-" parquet:"primary_roles,list" validate:"required,min=1"`
	Skills            []string `json:"skills" csv:"-" parquet:"skills,list" validate:"required,min=1"`
	ExperienceLevel   string   `json:"experience_level" csv:"experience_level" parquet:"experience_level" validate:"required"`
	EducationLevel    string   `json:"education_level" csv:"education_level" parquet:"education_level" validate:"required"`
	Location          string   `json:"location" csv:"location" parquet:"location" validate:"required"`
	YearsOfExperience float64  `json:"years_of_experience" csv:"years_of_experience" parquet:"years_of_experience" validate:"gte=0"`
}
