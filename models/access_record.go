package models

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// AccessRecord is the grant stored under its token. The token is the key
// and is never written into the stored value.
type AccessRecord struct {
	Token        string `json:"-"`
	UserEmail    string `json:"UserEmail"`
	MonthlyLimit int64  `json:"MonthlyLimit"`
	Revoked      bool   `json:"Revoked"`
}

type storedAccessRecord struct {
	UserEmail    *string `json:"UserEmail"`
	MonthlyLimit *int64  `json:"MonthlyLimit"`
	Revoked      bool    `json:"Revoked"`
}

// Encode serializes the record into its stored form.
func (r AccessRecord) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", errors.Wrap(ErrDecode, err.Error())
	}
	return string(b), nil
}

// DecodeAccessRecord parses a stored value read under token.
func DecodeAccessRecord(token string, raw string) (AccessRecord, error) {
	var stored storedAccessRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return AccessRecord{}, errors.Wrapf(ErrDecode, "access record: %v", err)
	}
	if stored.UserEmail == nil || stored.MonthlyLimit == nil {
		return AccessRecord{}, errors.Wrap(ErrDecode, "access record: missing UserEmail or MonthlyLimit")
	}
	if *stored.MonthlyLimit < 0 {
		return AccessRecord{}, errors.Wrapf(ErrDecode, "access record: negative MonthlyLimit %d", *stored.MonthlyLimit)
	}

	return AccessRecord{
		Token:        token,
		UserEmail:    *stored.UserEmail,
		MonthlyLimit: *stored.MonthlyLimit,
		Revoked:      stored.Revoked,
	}, nil
}

// ApprovalRequest is the body of PUT /api/approve. Token is optional on the
// wire so that a missing token can be reported as ErrEmptyToken.
type ApprovalRequest struct {
	Token        string
	UserEmail    string
	MonthlyLimit int64
	Revoked      bool
}

// UnmarshalJSON accepts both the stored field names and the short aliases
// token, email and limit.
func (r *ApprovalRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Token        *string `json:"Token"`
		UserEmail    *string `json:"UserEmail"`
		Email        *string `json:"email"`
		MonthlyLimit *int64  `json:"MonthlyLimit"`
		Limit        *int64  `json:"limit"`
		Revoked      bool    `json:"Revoked"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	email := raw.UserEmail
	if email == nil {
		email = raw.Email
	}
	limit := raw.MonthlyLimit
	if limit == nil {
		limit = raw.Limit
	}
	if email == nil {
		return errors.New("missing field UserEmail")
	}
	if limit == nil {
		return errors.New("missing field MonthlyLimit")
	}

	r.UserEmail = *email
	r.MonthlyLimit = *limit
	r.Revoked = raw.Revoked
	r.Token = ""
	if raw.Token != nil {
		r.Token = *raw.Token
	}
	return nil
}

// Record builds the active access record the request describes.
func (r ApprovalRequest) Record() AccessRecord {
	return AccessRecord{
		Token:        r.Token,
		UserEmail:    r.UserEmail,
		MonthlyLimit: r.MonthlyLimit,
		Revoked:      false,
	}
}

// TokenRequest is the body of PUT /api/revoke and the response of POST /api/trial.
type TokenRequest struct {
	Token string `json:"token"`
}
