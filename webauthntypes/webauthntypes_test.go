package webauthntypes_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	wantypes "github.com/yubicore/yubicore/webauthntypes"
)

func TestCredentialAssertionResponseJSON(t *testing.T) {
	resp := &wantypes.CredentialAssertionResponse{
		PublicKeyCredential: wantypes.PublicKeyCredential{
			Credential: wantypes.Credential{
				ID:   base64.RawURLEncoding.EncodeToString([]byte("credentialid")),
				Type: "public-key",
			},
			RawID: []byte("credentialid"),
			Extensions: &wantypes.AuthenticationExtensionsClientOutputs{
				AppID: true,
			},
		},
		AssertionResponse: wantypes.AuthenticatorAssertionResponse{
			AuthenticatorResponse: wantypes.AuthenticatorResponse{
				ClientDataJSON: []byte("clientdatajson"),
			},
			AuthenticatorData: []byte("authdata"),
			Signature:         []byte("signature"),
			UserHandle:        []byte("userhandle"),
		},
	}

	respJSON, err := json.Marshal(resp)
	require.NoError(t, err)

	got := &wantypes.CredentialAssertionResponse{}
	require.NoError(t, json.Unmarshal(respJSON, got))
	if diff := cmp.Diff(resp, got); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}

func okCredentialCreation() *wantypes.CredentialCreation {
	return &wantypes.CredentialCreation{
		Response: wantypes.PublicKeyCredentialCreationOptions{
			Challenge: make([]byte, 32),
			RelyingParty: wantypes.RelyingPartyEntity{
				CredentialEntity: wantypes.CredentialEntity{Name: "Example Corp"},
				ID:               "example.com",
			},
			Parameters: []wantypes.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: -7},
			},
			AuthenticatorSelection: wantypes.AuthenticatorSelection{
				UserVerification: protocol.VerificationDiscouraged,
			},
			Attestation: protocol.PreferNoAttestation,
			User: wantypes.UserEntity{
				CredentialEntity: wantypes.CredentialEntity{Name: "llama"},
				DisplayName:      "Llama",
				ID:               []byte{1, 2, 3, 4, 5},
			},
		},
	}
}

func TestCredentialCreationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cc *wantypes.CredentialCreation)
		nilCC   bool
		wantErr string
	}{
		{name: "ok"},
		{name: "nil cc", nilCC: true, wantErr: "credential creation required"},
		{
			name:    "nil challenge",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.Challenge = nil },
			wantErr: "challenge",
		},
		{
			name:    "empty RPID",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.RelyingParty.ID = "" },
			wantErr: "relying party ID",
		},
		{
			name:    "empty RP name",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.RelyingParty.Name = "" },
			wantErr: "relying party name",
		},
		{
			name:    "empty user name",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.User.Name = "" },
			wantErr: "user name",
		},
		{
			name:    "empty user display name",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.User.DisplayName = "" },
			wantErr: "user display name",
		},
		{
			name:    "nil user ID",
			mutate:  func(cc *wantypes.CredentialCreation) { cc.Response.User.ID = nil },
			wantErr: "user ID",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var cc *wantypes.CredentialCreation
			if !test.nilCC {
				cc = okCredentialCreation()
				if test.mutate != nil {
					test.mutate(cc)
				}
			}
			err := cc.Validate()
			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCredentialAssertionValidate(t *testing.T) {
	okAssertion := func() *wantypes.CredentialAssertion {
		return &wantypes.CredentialAssertion{
			Response: wantypes.PublicKeyCredentialRequestOptions{
				Challenge:      make([]byte, 32),
				RelyingPartyID: "example.com",
				AllowedCredentials: []wantypes.CredentialDescriptor{
					{Type: protocol.PublicKeyCredentialType, CredentialID: []byte{1, 2, 3, 4, 5}},
				},
			},
		}
	}

	tests := []struct {
		name      string
		assertion *wantypes.CredentialAssertion
		wantErr   string
	}{
		{name: "ok", assertion: okAssertion()},
		{name: "nil assertion", wantErr: "assertion required"},
		{
			name: "assertion without challenge",
			assertion: func() *wantypes.CredentialAssertion {
				a := okAssertion()
				a.Response.Challenge = nil
				return a
			}(),
			wantErr: "challenge",
		},
		{
			name: "assertion without RPID",
			assertion: func() *wantypes.CredentialAssertion {
				a := okAssertion()
				a.Response.RelyingPartyID = ""
				return a
			}(),
			wantErr: "relying party ID",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.assertion.Validate()
			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestRequireResidentKey(t *testing.T) {
	tests := []struct {
		name    string
		in      wantypes.AuthenticatorSelection
		want    bool
		wantErr string
	}{
		{name: "nothing set", in: wantypes.AuthenticatorSelection{}, want: false},
		{
			name: "discouraged and rrk=true",
			in: wantypes.AuthenticatorSelection{
				ResidentKey:        protocol.ResidentKeyRequirementDiscouraged,
				RequireResidentKey: boolPtr(true),
			},
			wantErr: "invalid combination of ResidentKey",
		},
		{
			name: "required and rrk=false",
			in: wantypes.AuthenticatorSelection{
				ResidentKey:        protocol.ResidentKeyRequirementRequired,
				RequireResidentKey: boolPtr(false),
			},
			wantErr: "invalid combination of ResidentKey",
		},
		{
			name: "support nil RequireResidentKey",
			in:   wantypes.AuthenticatorSelection{ResidentKey: "", RequireResidentKey: nil},
			want: false,
		},
		{
			name: "ResidentKey preferred results in false",
			in:   wantypes.AuthenticatorSelection{ResidentKey: protocol.ResidentKeyRequirementPreferred},
			want: false,
		},
		{
			name: "ResidentKey required",
			in:   wantypes.AuthenticatorSelection{ResidentKey: protocol.ResidentKeyRequirementRequired},
			want: true,
		},
		{
			name: "ResidentKey discouraged",
			in:   wantypes.AuthenticatorSelection{ResidentKey: protocol.ResidentKeyRequirementDiscouraged},
			want: false,
		},
		{
			name: "use RequireResidentKey required if ResidentKey empty",
			in:   wantypes.AuthenticatorSelection{ResidentKey: "", RequireResidentKey: boolPtr(true)},
			want: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cc := &wantypes.CredentialCreation{
				Response: wantypes.PublicKeyCredentialCreationOptions{AuthenticatorSelection: test.in},
			}
			got, err := cc.RequireResidentKey()
			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}
