package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/sirupsen/logrus"
)

// RoleResolution carries the derived role. Diagnostic is set when a
// membership check failed and the role fell back to Unregistered.
type RoleResolution struct {
	Role       domain.Role
	Diagnostic error
}

type RoleResolver struct {
	reader   ContractReader
	contract Contract
	log      *logrus.Entry
}

func NewRoleResolver(reader ContractReader, contract Contract, log *logrus.Entry) *RoleResolver {
	return &RoleResolver{
		reader:   reader,
		contract: contract.withDefaults(),
		log:      logging.OrDiscard(log).WithField("component", "role"),
	}
}

type membership struct {
	member bool
	err    error
}

// ResolveRole runs is_owner and is_user concurrently. An owner answer wins
// over everything else, including a failed or positive is_user.
func (r *RoleResolver) ResolveRole(ctx context.Context, accountID domain.AccountID) RoleResolution {
	var owner, user membership

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		owner = r.check(ctx, methodIsOwner, accountID)
	}()
	go func() {
		defer wg.Done()
		user = r.check(ctx, methodIsUser, accountID)
	}()
	wg.Wait()

	resolution := decideRole(owner, user)

	log := r.log.WithFields(logrus.Fields{"account_id": accountID, "role": resolution.Role})
	if resolution.Diagnostic != nil {
		log.WithError(resolution.Diagnostic).Warn("role checks failed, treating account as unregistered")
	} else {
		log.Debug("role resolved")
	}

	return resolution
}

func (r *RoleResolver) check(ctx context.Context, method string, accountID domain.AccountID) membership {
	var member bool
	if err := r.reader.ReadCall(ctx, r.contract.ID, method, accountArgs{AccountID: accountID}, &member); err != nil {
		return membership{err: fmt.Errorf("%s: %w", method, err)}
	}
	return membership{member: member}
}

func decideRole(owner, user membership) RoleResolution {
	if owner.err == nil && owner.member {
		return RoleResolution{Role: domain.RoleOwner}
	}
	if owner.err != nil || user.err != nil {
		return RoleResolution{Role: domain.RoleUnregistered, Diagnostic: errors.Join(owner.err, user.err)}
	}
	if user.member {
		return RoleResolution{Role: domain.RoleUser}
	}
	return RoleResolution{Role: domain.RoleUnregistered}
}
