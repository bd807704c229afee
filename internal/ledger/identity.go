package ledger

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Initialize makes caller the administrator of an empty ledger. Calling it
// again as the administrator is a no-op; any other caller is rejected.
func (l *Ledger) Initialize(caller Principal) error {
	if caller.IsNull() {
		return invalidInputf("administrator must not be the null principal")
	}

	admin, found, err := l.administrator()
	if err != nil {
		return errors.Trace(err)
	}
	if found {
		if admin == caller {
			return nil
		}
		return unauthorizedf("ledger is already administered by another principal")
	}

	if err := l.putJSON(adminKey, caller); err != nil {
		return errors.Trace(err)
	}
	l.logger.Info("ledger initialized", zap.String("admin", string(caller)))
	return nil
}

// Administrator returns the principal allowed to grant roles.
func (l *Ledger) Administrator() (Principal, error) {
	admin, found, err := l.administrator()
	if err != nil {
		return "", errors.Trace(err)
	}
	if !found {
		return "", notFoundf("ledger has no administrator")
	}
	return admin, nil
}

func (l *Ledger) administrator() (Principal, bool, error) {
	var admin Principal
	found, err := l.getJSON(adminKey, &admin)
	return admin, found, err
}

// Authorize grants role to principal. Only the administrator may call it, and
// granting a role that is already held succeeds without change.
func (l *Ledger) Authorize(caller, principal Principal, role Role) error {
	admin, found, err := l.administrator()
	if err != nil {
		return errors.Trace(err)
	}
	if !found || admin != caller {
		return unauthorizedf("only the administrator can authorize principals")
	}
	if principal.IsNull() {
		return invalidInputf("cannot authorize the null principal")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}

	held, err := l.IsAuthorized(principal, role)
	if err != nil {
		return errors.Trace(err)
	}
	if held {
		return nil
	}

	grant := RoleGrant{
		Principal: principal,
		Role:      role,
		GrantedBy: caller,
	}
	if err := l.putJSON(roleKey(role, principal), grant); err != nil {
		return errors.Trace(err)
	}

	l.logger.Debug("role authorized",
		zap.String("principal", string(principal)),
		zap.String("role", string(role)),
		zap.String("caller", string(caller)))
	l.emit(Event{
		Type: EventRoleAuthorized,
		Payload: map[string]interface{}{
			"principal": principal,
			"role":      role,
		},
	})
	return nil
}

// IsAuthorized reports whether principal holds role.
func (l *Ledger) IsAuthorized(principal Principal, role Role) (bool, error) {
	if principal.IsNull() {
		return false, nil
	}
	data, err := l.state.GetState(roleKey(role, principal))
	if err != nil {
		return false, errors.Annotate(err, "failed to read role grant")
	}
	return data != nil, nil
}

// RoleGrant returns the grant of role to principal.
func (l *Ledger) RoleGrant(principal Principal, role Role) (*RoleGrant, error) {
	var grant RoleGrant
	found, err := l.getJSON(roleKey(role, principal), &grant)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !found {
		return nil, notFoundf("principal %q does not hold role %s", principal, role)
	}
	return &grant, nil
}
