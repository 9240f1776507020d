package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizunavi/kizunavi/internal/models"
)

type authStubStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (s *authStubStore) FindUserByEmail(email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *authStubStore) GetUser(id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *authStubStore) AddUser(u *models.User) error {
	cp := *u
	s.byEmail[u.Email] = &cp
	s.byID[u.ID] = &cp
	return nil
}

func testSigner(uid, companyID, email string, role models.Role, ttl time.Duration) (string, error) {
	return "token:" + uid + ":" + string(role), nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, testSigner)
	svc.now = func() time.Time { return time.Unix(0, 0).UTC() }
	svc.idGen = func(prefix string, n int) string { return prefix + "1234567" }

	u, err := svc.Register("hr@example.co.jp", "Secret123", "c1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, PermissionsForRole(models.RoleAdmin), u.Permissions)

	_, err = svc.Register("hr@example.co.jp", "Secret123", "c1", models.RoleAdmin)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrorConflict))

	res, err := svc.Login("hr@example.co.jp", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "token:u1234567:admin", res.Token)
	assert.Equal(t, PermissionsForRole(models.RoleAdmin), res.User.Permissions)
	assert.Positive(t, res.ExpiresIn)

	_, err = svc.Login("hr@example.co.jp", "wrong")
	assert.True(t, IsCode(err, ErrorUnauthorized))
	_, err = svc.Login("missing@example.co.jp", "Secret123")
	assert.True(t, IsCode(err, ErrorUnauthorized))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), testSigner)
	_, err := svc.Register("x@example.com", "pw", "c1", models.Role("superuser"))
	assert.True(t, IsCode(err, ErrorInvalid))
}

func TestLoginValidation(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), testSigner)
	_, err := svc.Login("", "")
	assert.True(t, IsCode(err, ErrorInvalid))
	_, err = svc.Register("", "", "c1", models.RoleMember)
	assert.True(t, IsCode(err, ErrorInvalid))
}

func TestValidateRecomputesPermissions(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, testSigner)
	u, err := svc.Register("member@example.co.jp", "pw123456", "c1", models.RoleMember)
	require.NoError(t, err)

	// poison the persisted permission set; Validate must not trust it
	stored := store.byID[u.ID]
	stored.Permissions = models.Permissions{CanManageCustomers: true}

	got, err := svc.Validate(u.ID)
	require.NoError(t, err)
	assert.Equal(t, PermissionsForRole(models.RoleMember), got.Permissions)

	_, err = svc.Validate("nope")
	assert.True(t, IsCode(err, ErrorUnauthorized))
}
