package request

type ReserveRequest struct {
	SubjectID  string `json:"subject_id" validate:"required,uuid4"`
	ResourceID string `json:"resource_id" validate:"required,uuid4"`
}

type CancelRequest struct {
	SubjectID string `json:"subject_id" validate:"required,uuid4"`
}
