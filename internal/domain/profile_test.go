package domain

import (
	"errors"
	"testing"
)

func TestCulturalProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       CulturalProfile
		wantErr error
	}{
		{"minimal", CulturalProfile{UserID: "u1"}, nil},
		{"full", CulturalProfile{UserID: "u1", Directness: "direct", PreferredLanguage: "ar", FormalAddress: BoolPtr(true)}, nil},
		{"no user", CulturalProfile{}, ErrEmptyUserID},
		{"bad directness", CulturalProfile{UserID: "u1", Directness: "blunt"}, ErrInvalidProfile},
		{"bad language", CulturalProfile{UserID: "u1", PreferredLanguage: "fr"}, ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	if Flag(nil) || Flag(BoolPtr(false)) || !Flag(BoolPtr(true)) {
		t.Error("Flag() mismatch")
	}
}
