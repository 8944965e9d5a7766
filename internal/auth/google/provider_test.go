package google

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	oauth2v2 "google.golang.org/api/oauth2/v2"
)

func TestProvider_AuthCodeURL(t *testing.T) {
	p := NewProvider("client-123", "secret", "http://localhost:8081/api/auth/google/callback")

	raw := p.AuthCodeURL("state-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL() returned invalid URL: %v", err)
	}

	q := u.Query()
	if q.Get("client_id") != "client-123" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-abc" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("redirect_uri") != "http://localhost:8081/api/auth/google/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	scope := q.Get("scope")
	for _, want := range []string{"openid", "userinfo.email", "userinfo.profile"} {
		if !strings.Contains(scope, want) {
			t.Errorf("scope %q missing %q", scope, want)
		}
	}
}

func TestIdentityFromUserinfo(t *testing.T) {
	verified, unverified := true, false

	tests := []struct {
		name    string
		info    *oauth2v2.Userinfo
		wantErr bool
	}{
		{"verified", &oauth2v2.Userinfo{Id: "g1", Email: "a@b.com", Name: "Ann", VerifiedEmail: &verified}, false},
		{"unverified", &oauth2v2.Userinfo{Id: "g1", Email: "a@b.com", VerifiedEmail: &unverified}, true},
		{"verification unknown", &oauth2v2.Userinfo{Id: "g1", Email: "a@b.com"}, true},
		{"missing id", &oauth2v2.Userinfo{Email: "a@b.com", VerifiedEmail: &verified}, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := identityFromUserinfo(tt.info)
			if (err != nil) != tt.wantErr {
				t.Fatalf("identityFromUserinfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (id.ID != "g1" || id.Name != "Ann") {
				t.Errorf("identityFromUserinfo() = %+v", id)
			}
		})
	}

	_, err := identityFromUserinfo(&oauth2v2.Userinfo{Id: "x", Email: "x@y.z", VerifiedEmail: &unverified})
	if !errors.Is(err, ErrUnverifiedEmail) {
		t.Errorf("error = %v, want ErrUnverifiedEmail", err)
	}
}
