package security_test

import (
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/security"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	const plain = "red-fish-blue"

	hash, err := security.HashPassword(plain)

	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if hash == plain {
		t.Fatal("hash must not equal the submitted plaintext")
	}

	if err := security.CheckPassword(hash, plain); err != nil {
		t.Fatalf("check against original plaintext should succeed: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-password"); err == nil {
		t.Fatal("check against a different plaintext should fail")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		plain   string
		wantErr error
	}{
		{name: "ok", plain: "red-fish-blue", wantErr: nil},
		{name: "too_short", plain: "abc123", wantErr: security.ErrPasswordTooShort},
		{name: "contains_password", plain: "mypassword1", wantErr: security.ErrPasswordTooCommon},
		{name: "contains_password_mixed_case", plain: "MyPaSsWoRd1", wantErr: security.ErrPasswordTooCommon},
		{name: "empty", plain: "", wantErr: security.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			err := security.ValidatePassword(tt.plain)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
