package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/passpolicy"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

// ProvisionInput carries Clearance as received. Provision range-checks it
// before converting it to a level.
type ProvisionInput struct {
	Username   string
	Password   string
	Clearance  int
	WithoutMFA bool
}

// ProvisionOutput carries the only copy of the second-factor secret the
// caller will ever see.
type ProvisionOutput struct {
	Record    entity.AuthRecord
	MFASecret string
	MFAURI    string
}

func (s *Usecase) Provision(ctx context.Context, in ProvisionInput) (*ProvisionOutput, error) {
	ctx, span := s.startSpan(ctx, "Provision")
	defer span.End()

	username := in.Username
	if !validator.ValidUsername(username) {
		return nil, policyError(&entity.PolicyError{Rule: entity.RuleInvalidUsername},
			"invalid username", goerror.CodeInvalidInput,
			"username", "must be 1-64 characters of letters, digits, '.', '_' or '-'")
	}

	_, err := s.repoCred.GetAuthRecord(ctx, username)
	if err == nil {
		return nil, duplicateUser(ctx, username)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get auth record", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ok, rule := passpolicy.Validate(username, in.Password); !ok {
		slog.InfoContext(ctx, "password rejected by policy", "username", username, "rule", rule.String())
		return nil, policyError(&entity.PolicyError{Rule: entity.RuleWeakPassword, Password: rule},
			"password does not meet policy", goerror.CodeInvalidInput,
			"password", rule.Message(), "rule", rule.String())
	}

	clearance, err := blp.ParseLevel(in.Clearance)
	if err != nil {
		slog.InfoContext(ctx, "clearance rejected", "username", username, "clearance", in.Clearance)
		return nil, policyError(&entity.PolicyError{Rule: entity.RuleInvalidClearance},
			"invalid clearance", goerror.CodeInvalidInput,
			"clearance", "must be between 0 and 3")
	}

	hashed, err := s.argon2id.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &ProvisionOutput{}
	var factor entity.SecondFactor = entity.NoSecondFactor{}
	if !in.WithoutMFA {
		secret, uri, err := s.totp.Generate(username)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate totp secret", "username", username, "error", err)
			return nil, goerror.NewServer(err)
		}
		sealed, err := s.sealSeed(username, secret)
		if err != nil {
			slog.ErrorContext(ctx, "failed to seal totp secret", "username", username, "error", err)
			return nil, goerror.NewServer(err)
		}
		factor = entity.TOTPFactor{Secret: sealed}
		out.MFASecret, out.MFAURI = secret, uri
	}

	out.Record = entity.AuthRecord{
		Username:     username,
		PasswordHash: string(hashed),
		Factor:       factor,
		Clearance:    clearance,
		CreatedAt:    s.clock.Now(),
	}

	err = s.repoCred.CreateAuthRecord(ctx, out.Record)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, duplicateUser(ctx, username)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create auth record", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "account provisioned", "username", username,
		"clearance", clearance.String(), "mfa", factor.Kind())
	s.audit(ctx, AuditEvent{
		Kind:     event.KindAccountProvisioned,
		Username: username,
		Outcome:  "created",
		Detail:   "clearance=" + clearance.String() + " factor=" + string(factor.Kind()),
	})

	return out, nil
}

func duplicateUser(ctx context.Context, username string) error {
	slog.WarnContext(ctx, "account already exists", "username", username)
	return policyError(&entity.PolicyError{Rule: entity.RuleDuplicateUser},
		"account already exists", goerror.CodeConflict, "username", "already taken")
}

func policyError(pe *entity.PolicyError, msg string, code goerror.Code, kv ...string) error {
	return goerror.WithFields(goerror.WrapBusiness(pe, msg, code), kv...)
}
