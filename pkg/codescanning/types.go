package codescanning

import "time"

// AlertState is the lifecycle state of a code scanning alert.
type AlertState string

const (
	AlertStateOpen      AlertState = "open"
	AlertStateDismissed AlertState = "dismissed"
	AlertStateFixed     AlertState = "fixed"
	AlertStateClosed    AlertState = "closed"
)

// UpdateAlertState is the subset of states a PATCH may set.
type UpdateAlertState string

const (
	UpdateStateOpen      UpdateAlertState = "open"
	UpdateStateDismissed UpdateAlertState = "dismissed"
)

// Severity filters alerts by rule severity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityWarning  Severity = "warning"
	SeverityNote     Severity = "note"
	SeverityError    Severity = "error"
)

// SortField orders list results.
type SortField string

const (
	SortCreated SortField = "created"
	SortUpdated SortField = "updated"
)

// Direction is the sort direction.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// DismissedReason is required when dismissing an alert. GitHub accepts these
// exact strings.
type DismissedReason string

const (
	ReasonFalsePositive DismissedReason = "false positive"
	ReasonWontFix       DismissedReason = "won't fix"
	ReasonUsedInTests   DismissedReason = "used in tests"
)

// AutofixStatus is the lifecycle state of an autofix job.
type AutofixStatus string

const (
	AutofixPending  AutofixStatus = "pending"
	AutofixSuccess  AutofixStatus = "success"
	AutofixError    AutofixStatus = "error"
	AutofixOutdated AutofixStatus = "outdated"
)

// Actor is the user summary GitHub embeds in alert payloads.
type Actor struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

// Rule describes the static analysis rule behind an alert.
type Rule struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Severity              string   `json:"severity"`
	SecuritySeverityLevel string   `json:"security_severity_level"`
	Description           string   `json:"description"`
	Tags                  []string `json:"tags"`
}

// Tool identifies the analysis tool that produced an alert.
type Tool struct {
	Name    string `json:"name"`
	GUID    string `json:"guid"`
	Version string `json:"version"`
}

// Location points at the flagged source region.
type Location struct {
	Path        string `json:"path"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	StartColumn int    `json:"start_column"`
	EndColumn   int    `json:"end_column"`
}

// Instance is one occurrence of an alert on a particular ref/analysis.
type Instance struct {
	Ref         string   `json:"ref"`
	AnalysisKey string   `json:"analysis_key"`
	Environment string   `json:"environment"`
	Category    string   `json:"category"`
	State       string   `json:"state"`
	CommitSHA   string   `json:"commit_sha"`
	Message     struct {
		Text string `json:"text"`
	} `json:"message"`
	Location        *Location `json:"location"`
	Classifications []string  `json:"classifications"`
}

// Alert is a code scanning alert.
type Alert struct {
	Number             int             `json:"number"`
	State              AlertState      `json:"state"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	FixedAt            *time.Time      `json:"fixed_at"`
	DismissedAt        *time.Time      `json:"dismissed_at"`
	DismissedBy        *Actor          `json:"dismissed_by"`
	DismissedReason    DismissedReason `json:"dismissed_reason"`
	DismissedComment   string          `json:"dismissed_comment"`
	URL                string          `json:"url"`
	HTMLURL            string          `json:"html_url"`
	InstancesURL       string          `json:"instances_url"`
	Assignees          []Actor         `json:"assignees"`
	Rule               Rule            `json:"rule"`
	Tool               Tool            `json:"tool"`
	MostRecentInstance *Instance       `json:"most_recent_instance"`
}

// Autofix is the status of an AI-generated fix for an alert.
type Autofix struct {
	Status      AutofixStatus `json:"status"`
	Description string        `json:"description"`
	StartedAt   time.Time     `json:"started_at"`
}

// AutofixCommit is the result of committing an autofix to a branch.
type AutofixCommit struct {
	TargetRef string `json:"target_ref"`
	SHA       string `json:"sha"`
}
