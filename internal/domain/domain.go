package domain

// ExternalDataStatus is the outcome of a provider fetch.
type ExternalDataStatus string

const (
	ExternalDataSuccess ExternalDataStatus = "success"
	ExternalDataFailure ExternalDataStatus = "failure"
	ExternalDataPending ExternalDataStatus = "pending"
)

// ExternalDataEntry records one provider result on an application.
type ExternalDataEntry struct {
	Status ExternalDataStatus `json:"status" enum:"success,failure,pending"`
	Data   any                `json:"data,omitempty"`
	Reason string             `json:"reason,omitempty"`
	Date   string             `json:"date" format:"date-time"`
}

type Application struct {
	ID             string                       `json:"id"`
	TypeID         string                       `json:"type_id"`
	State          string                       `json:"state"`
	Applicant      string                       `json:"applicant"`
	Assignees      []string                     `json:"assignees,omitempty"`
	Answers        map[string]any               `json:"answers"`
	ExternalData   map[string]ExternalDataEntry `json:"external_data"`
	Version        int64                        `json:"version"`
	Listed         bool                         `json:"listed"`
	Created        string                       `json:"created" format:"date-time"`
	Modified       string                       `json:"modified" format:"date-time"`
	StateEnteredAt string                       `json:"state_entered_at" format:"date-time"`
	PruneAt        *string                      `json:"prune_at,omitempty" format:"date-time"`
}

// HasAssignee reports whether actorID is among the application's assignees.
func (a Application) HasAssignee(actorID string) bool {
	for _, id := range a.Assignees {
		if id == actorID {
			return true
		}
	}
	return false
}

type Event struct {
	ID            int64  `json:"id"`
	TS            string `json:"ts" format:"date-time"`
	Type          string `json:"type"`
	ApplicationID string `json:"application_id,omitempty"`
	ActorID       string `json:"actor_id"`
	Payload       string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
