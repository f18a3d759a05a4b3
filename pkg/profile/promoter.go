package profile

import (
	"log/slog"
	"strings"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/logger"
)

// Promoter copies a profile's credentials into the reserved profile
type Promoter struct {
	store  CredentialStore
	logger *slog.Logger
}

// NewPromoter creates a Promoter over store
func NewPromoter(store CredentialStore, log *slog.Logger) *Promoter {
	return &Promoter{
		store:  store,
		logger: logger.WithComponent(log, "promoter"),
	}
}

// Promote replaces the reserved profile with the credentials of
// profileName, tagged with OriginField. Input and schema errors are returned
// before anything is written. The previous reserved record is discarded.
func (p *Promoter) Promote(profileName string) error {
	if strings.TrimSpace(profileName) == "" {
		return swerrors.NewEmptyProfileNameError()
	}

	s, err := p.store.Load()
	if err != nil {
		return err
	}

	rec, ok := s.Profile(profileName)
	if !ok || len(rec.Without(OriginField)) == 0 {
		return swerrors.NewMissingCredentialError(profileName)
	}

	cred, err := Classify(profileName, rec.With(OriginField, profileName))
	if err != nil {
		return err
	}

	if err := p.store.Save(s.WithProfile(ReservedProfile, cred.Record())); err != nil {
		return err
	}

	logger.WithProfile(p.logger, profileName).Info("Promoted profile",
		"target", ReservedProfile,
		"schema", cred.Schema(),
		"accessKey", logger.MaskSensitiveValue(cred.AccessKey()),
	)
	return nil
}
