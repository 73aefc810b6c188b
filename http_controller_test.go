package auth_test

import (
	"testing"

	auth "github.com/aprog93/radio-auth"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := auth.RegisterRequest{
		Email:       "dj@station.fm",
		Password:    "password123",
		DisplayName: "DJ Morning",
	}

	t.Run("valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("invalid email", func(t *testing.T) {
		r := valid
		r.Email = "not-an-email"
		assert.Error(t, r.Validate())
	})

	t.Run("short password", func(t *testing.T) {
		r := valid
		r.Password = "short"
		assert.Error(t, r.Validate())
	})

	t.Run("missing display name", func(t *testing.T) {
		r := valid
		r.DisplayName = ""
		assert.Error(t, r.Validate())
	})

	t.Run("optional phone accepts a valid number", func(t *testing.T) {
		r := valid
		r.Phone = "+12025550123"
		assert.NoError(t, r.Validate())
	})

	t.Run("optional phone rejects garbage", func(t *testing.T) {
		r := valid
		r.Phone = "not-a-phone"
		assert.Error(t, r.Validate())
	})
}

func TestLoginRequestValidate(t *testing.T) {
	assert.NoError(t, auth.LoginRequest{Email: "dj@station.fm", Password: "pw"}.Validate())
	assert.Error(t, auth.LoginRequest{Email: "", Password: "pw"}.Validate())
	assert.Error(t, auth.LoginRequest{Email: "dj@station.fm", Password: ""}.Validate())
	assert.Error(t, auth.LoginRequest{Email: "nope", Password: "pw"}.Validate())
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, auth.ValidatePhoneNumber(""))
	assert.NoError(t, auth.ValidatePhoneNumber("+12025550123"))
	assert.NoError(t, auth.ValidatePhoneNumber("(202) 555-0123"))
	assert.Error(t, auth.ValidatePhoneNumber("123"))
	assert.Error(t, auth.ValidatePhoneNumber("not-a-phone"))
}
