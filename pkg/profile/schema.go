package profile

import (
	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/repository"
)

// Credential field names understood by AWS tooling
const (
	FieldAccessKeyID     = "aws_access_key_id"
	FieldSecretAccessKey = "aws_secret_access_key"
	FieldSessionToken    = "aws_session_token"
	FieldRegion          = "region"
)

// OriginField records which profile the reserved profile was promoted from.
// AWS tooling ignores unknown keys in the credentials file.
const OriginField = "awsswitch_origin"

// minCredentialFields is the smallest record accepted for promotion,
// not counting OriginField.
const minCredentialFields = 3

// Schema names the recognized shape of a credential record
type Schema string

const (
	SchemaKeyPairRegion Schema = "key-pair-region"
	SchemaSessionToken  Schema = "session-token"
)

// Credential is the validated form of a record: either KeyPairRegion or
// SessionCredentials.
type Credential interface {
	Schema() Schema
	AccessKey() string
	// Record returns the full record, including fields outside the schema.
	Record() repository.Record
}

// KeyPairRegion is a long-term access key bound to a region
type KeyPairRegion struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	record          repository.Record
}

func (c KeyPairRegion) Schema() Schema {
	return SchemaKeyPairRegion
}

func (c KeyPairRegion) AccessKey() string {
	return c.AccessKeyID
}

func (c KeyPairRegion) Record() repository.Record {
	return c.record.Clone()
}

// SessionCredentials is a temporary access key with its session token
type SessionCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	record          repository.Record
}

func (c SessionCredentials) Schema() Schema {
	return SchemaSessionToken
}

func (c SessionCredentials) AccessKey() string {
	return c.AccessKeyID
}

func (c SessionCredentials) Record() repository.Record {
	return c.record.Clone()
}

// Classify validates rec for profile name and returns the matching variant.
// The key pair schema is tried first.
func Classify(name string, rec repository.Record) (Credential, error) {
	if len(rec.Without(OriginField)) == 0 {
		return nil, swerrors.NewMissingCredentialError(name)
	}
	if len(rec.Without(OriginField)) < minCredentialFields {
		return nil, swerrors.NewInvalidSchemaError(name, rec.Keys())
	}

	access, _ := rec.Get(FieldAccessKeyID)
	secret, _ := rec.Get(FieldSecretAccessKey)
	if access == "" || secret == "" {
		return nil, swerrors.NewInvalidSchemaError(name, rec.Keys())
	}

	if region, _ := rec.Get(FieldRegion); region != "" {
		return KeyPairRegion{
			AccessKeyID:     access,
			SecretAccessKey: secret,
			Region:          region,
			record:          rec.Clone(),
		}, nil
	}
	if token, _ := rec.Get(FieldSessionToken); token != "" {
		return SessionCredentials{
			AccessKeyID:     access,
			SecretAccessKey: secret,
			SessionToken:    token,
			record:          rec.Clone(),
		}, nil
	}
	return nil, swerrors.NewInvalidSchemaError(name, rec.Keys())
}
