package oauth

import (
	"testing"
)

func TestExchangeError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ExchangeError
		want string
	}{
		{
			name: "description wins",
			err:  &ExchangeError{StatusCode: 400, Code: "invalid_grant", Description: "Code not valid"},
			want: "Code not valid",
		},
		{
			name: "error code when no description",
			err:  &ExchangeError{StatusCode: 400, Code: "invalid_grant"},
			want: "invalid_grant",
		},
		{
			name: "status when body is empty",
			err:  &ExchangeError{StatusCode: 500},
			want: "HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpoints_SupportsPKCE(t *testing.T) {
	tests := []struct {
		name    string
		methods []string
		want    bool
	}{
		{"unspecified", nil, true},
		{"S256 listed", []string{"plain", "S256"}, true},
		{"plain only", []string{"plain"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Endpoints{CodeChallengeMethodsSupported: tt.methods}
			if got := e.SupportsPKCE(); got != tt.want {
				t.Errorf("SupportsPKCE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeycloakEndpoints(t *testing.T) {
	e := KeycloakEndpoints("http://localhost:8080/realms/employee-realm/")

	if e.Issuer != "http://localhost:8080/realms/employee-realm" {
		t.Errorf("Issuer = %s", e.Issuer)
	}
	if e.AuthorizationEndpoint != "http://localhost:8080/realms/employee-realm/protocol/openid-connect/auth" {
		t.Errorf("AuthorizationEndpoint = %s", e.AuthorizationEndpoint)
	}
	if e.TokenEndpoint != "http://localhost:8080/realms/employee-realm/protocol/openid-connect/token" {
		t.Errorf("TokenEndpoint = %s", e.TokenEndpoint)
	}
	if e.EndSessionEndpoint != "http://localhost:8080/realms/employee-realm/protocol/openid-connect/logout" {
		t.Errorf("EndSessionEndpoint = %s", e.EndSessionEndpoint)
	}
	if e.Discovered {
		t.Error("conventional endpoints must not be marked as discovered")
	}
}
