package models

// HumanUser is a registration request waiting for approval.
type HumanUser struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Building *string `json:"building"`
	Calls    int64   `json:"calls"`
}
