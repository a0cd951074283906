package webauthncli

import (
	"context"
	"crypto/sha256"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/ctap2"
	"github.com/yubicore/yubicore/pinuv"
	"github.com/yubicore/yubicore/secret"
	"github.com/yubicore/yubicore/transport"
	"github.com/yubicore/yubicore/webauthncli/extension"
	"github.com/yubicore/yubicore/webauthntypes"
)

// Client drives a single authenticator (over a transport.Connection)
// through MakeCredential and GetAssertion ceremonies, handling PIN/UV
// negotiation, extension processing, CTAP1/U2F fallback, and prompting
// transparently (spec.md §4.4). A Client is not safe for concurrent use:
// it holds state (pending multi-credential assertions, an in-flight
// hmac-secret shared key) across the two calls of a disambiguated
// GetAssertion ceremony.
type Client struct {
	conn   transport.Connection
	sess   *ctap2.Session
	prompt LoginPrompt

	pendingAssertions []getAssertionResponse
	pendingHMACProto  pinuv.Protocol
	pendingHMACShared *secret.Bytes
}

// NewClient wraps a connection and a LoginPrompt implementation.
func NewClient(conn transport.Connection, prompt LoginPrompt) *Client {
	return &Client{conn: conn, sess: ctap2.NewSession(conn), prompt: prompt}
}

// MakeCredentialResult is the subset of authenticatorMakeCredential's
// response the caller needs to build a CredentialCreationResponse.
type MakeCredentialResult struct {
	CredentialID           []byte
	AuthData               []byte
	Fmt                    string
	AttStmt                []byte
	LargeBlobKey           []byte
	ClientExtensionResults map[string]any
}

// MakeCredential runs the registration ceremony for cc against the
// connected authenticator. origin supplies the RP-ID validation context
// (spec.md §4.4 step 1); callers outside a browser context (e.g. a local
// CLI acting as its own relying party) set EffectiveDomain to the RP ID
// itself.
func (c *Client) MakeCredential(ctx context.Context, cc *webauthntypes.CredentialCreation, clientDataJSON []byte, origin CeremonyOrigin) (*MakeCredentialResult, error) {
	if err := cc.Validate(); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := validateRPID(ctx, cc.Response.RelyingParty.ID, origin); err != nil {
		return nil, trace.Wrap(err)
	}

	clientDataHash := sha256.Sum256(clientDataJSON)

	info, err := c.sess.GetInfo(ctx)
	if err != nil {
		return c.makeCredentialU2F(ctx, cc, clientDataHash[:])
	}

	filtered, err := filterAlgorithms(cc.Response.Parameters, info.Algorithms)
	if err != nil {
		return nil, err
	}

	excludeList := toDescriptors(cc.Response.ExcludeCredentials)
	if err := c.probeExcludeList(ctx, cc.Response.RelyingParty.ID, clientDataHash[:], excludeList, info.MaxCredentialCountInList); err != nil {
		return nil, err
	}

	params := makeCredentialParams{
		ClientDataHash: clientDataHash[:],
		RP: rpEntity{
			ID:   cc.Response.RelyingParty.ID,
			Name: cc.Response.RelyingParty.Name,
		},
		User: userEntity{
			ID:          cc.Response.User.ID,
			Name:        cc.Response.User.Name,
			DisplayName: cc.Response.User.DisplayName,
		},
		ExcludeList: excludeList,
	}
	for _, p := range filtered {
		params.PubKeyCredParams = append(params.PubKeyCredParams, credParam{Type: string(p.Type), Alg: int64(p.Algorithm)})
	}

	createExt := extension.BuildCreateExtensions(createExtensionInputsFrom(cc.Response.Extensions))
	params.Extensions = createExt.Extensions

	rk, err := cc.RequireResidentKey()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if rk {
		params.Options = map[string]bool{"rk": true}
	}

	uvRequired := cc.Response.AuthenticatorSelection.UserVerification == "required"
	pinHasToken, present := info.Option("clientPin")
	if (uvRequired || rk) && present && pinHasToken {
		pinAuth, protoVersion, err := c.authenticateWithPIN(ctx, info, clientDataHash[:], pinuv.PermissionMakeCredential|createExt.AddedPermissions, cc.Response.RelyingParty.ID)
		if err != nil {
			return nil, err
		}
		params.PinUvAuthParam = pinAuth
		params.PinUvAuthProtocol = protoVersion
	}

	touch, err := c.prompt.PromptTouch()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer touch()

	var resp makeCredentialResponse
	if err := c.sess.Call(ctx, ctap2.CmdMakeCredential, params, &resp); err != nil {
		return nil, classifyCeremonyError(err)
	}

	credID, err := extractCredentialID(resp.AuthData)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	authExt, err := extractExtensions(resp.AuthData)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	return &MakeCredentialResult{
		CredentialID:           credID,
		AuthData:               resp.AuthData,
		Fmt:                    resp.Fmt,
		AttStmt:                []byte(resp.AttStmt),
		LargeBlobKey:           resp.LargeBlobKey,
		ClientExtensionResults: extension.CreateClientResults(authExt),
	}, nil
}

// GetAssertionResult is the subset of authenticatorGetAssertion's response
// the caller needs to build a CredentialAssertionResponse.
type GetAssertionResult struct {
	CredentialID           []byte
	AuthData               []byte
	Signature              []byte
	UserHandle             []byte
	ClientExtensionResults map[string]any
}

// GetAssertion runs the authentication ceremony for ca. If the
// authenticator reports more than one matching discoverable credential, it
// returns a *clienterr.MultipleAssertionsAvailable carrying the full
// {user, credentialId} set (already drained via authenticatorGetNextAssertion,
// which CTAP2 only allows to be walked in order); resolve the ceremony by
// calling SelectAssertion with the caller's chosen index.
func (c *Client) GetAssertion(ctx context.Context, ca *webauthntypes.CredentialAssertion, clientDataJSON []byte, origin CeremonyOrigin) (*GetAssertionResult, error) {
	if err := ca.Validate(); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := validateRPID(ctx, ca.Response.RelyingPartyID, origin); err != nil {
		return nil, trace.Wrap(err)
	}

	clientDataHash := sha256.Sum256(clientDataJSON)

	info, err := c.sess.GetInfo(ctx)
	if err != nil {
		return c.getAssertionU2F(ctx, ca, clientDataHash[:])
	}

	params := getAssertionParams{
		RPID:           ca.Response.RelyingPartyID,
		ClientDataHash: clientDataHash[:],
		AllowList:      toDescriptors(ca.Response.AllowedCredentials),
	}

	uvRequired := ca.Response.UserVerification == "required"
	pinSupported, present := info.Option("clientPin")
	if uvRequired && present && pinSupported {
		pinAuth, protoVersion, err := c.authenticateWithPIN(ctx, info, clientDataHash[:], pinuv.PermissionGetAssertion, ca.Response.RelyingPartyID)
		if err != nil {
			return nil, err
		}
		params.PinUvAuthParam = pinAuth
		params.PinUvAuthProtocol = protoVersion
	}

	if salt1, salt2 := hmacSecretSaltsFrom(ca.Response.Extensions); len(salt1) > 0 {
		proto, err := negotiatedProtocol(info)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		res, shared, err := c.beginHMACSecretExtension(ctx, proto, salt1, salt2)
		if err != nil {
			return nil, err
		}
		params.Extensions = res.Extensions
		c.pendingHMACProto = proto
		c.pendingHMACShared = shared
	}

	touch, err := c.prompt.PromptTouch()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer touch()

	var resp getAssertionResponse
	if err := c.sess.Call(ctx, ctap2.CmdGetAssertion, params, &resp); err != nil {
		c.zeroHMACState()
		return nil, classifyCeremonyError(err)
	}

	if resp.NumberOfCredentials > 1 {
		all, err := c.drainAssertions(ctx, resp)
		if err != nil {
			c.zeroHMACState()
			return nil, classifyCeremonyError(err)
		}
		c.pendingAssertions = all
		return nil, clienterr.NewMultipleAssertionsAvailable(choicesFromAssertions(all))
	}

	result, err := c.resultFromAssertionResponse(resp)
	c.zeroHMACState()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return result, nil
}

// SelectAssertion finalizes a GetAssertion ceremony that returned
// *clienterr.MultipleAssertionsAvailable, resolving to the credential at
// index (matching Choices' order in that error).
func (c *Client) SelectAssertion(index int) (*GetAssertionResult, error) {
	if index < 0 || index >= len(c.pendingAssertions) {
		return nil, clienterr.New(clienterr.BadRequest, trace.BadParameter("webauthncli: assertion index %d out of range", index))
	}
	resp := c.pendingAssertions[index]
	c.pendingAssertions = nil

	result, err := c.resultFromAssertionResponse(resp)
	c.zeroHMACState()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return result, nil
}

// drainAssertions fetches the remaining candidates via
// authenticatorGetNextAssertion. CTAP2 only allows walking this list in
// order starting from the credential already returned in first; there is
// no way to jump directly to an arbitrary index, so every candidate is
// fetched up front.
func (c *Client) drainAssertions(ctx context.Context, first getAssertionResponse) ([]getAssertionResponse, error) {
	all := make([]getAssertionResponse, 0, first.NumberOfCredentials)
	all = append(all, first)
	for i := uint32(1); i < first.NumberOfCredentials; i++ {
		var next getAssertionResponse
		if err := c.sess.Call(ctx, ctap2.CmdGetNextAssertion, nil, &next); err != nil {
			return nil, trace.Wrap(err)
		}
		all = append(all, next)
	}
	return all, nil
}

func choicesFromAssertions(all []getAssertionResponse) []clienterr.CredentialChoice {
	choices := make([]clienterr.CredentialChoice, 0, len(all))
	for _, a := range all {
		choices = append(choices, clienterr.CredentialChoice{
			CredentialID:    a.Credential.ID,
			UserID:          a.User.ID,
			UserName:        a.User.Name,
			UserDisplayName: a.User.DisplayName,
		})
	}
	return choices
}

// resultFromAssertionResponse builds a GetAssertionResult from one decoded
// getAssertionResponse, decrypting the hmac-secret extension output (if
// requested) under the shared secret negotiated earlier in this ceremony.
func (c *Client) resultFromAssertionResponse(resp getAssertionResponse) (*GetAssertionResult, error) {
	authExt, err := extractExtensions(resp.AuthData)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var clientExt map[string]any
	if enc, ok := extension.GetClientResults(authExt); ok && c.pendingHMACShared != nil {
		plain, err := c.pendingHMACProto.Decrypt(c.pendingHMACShared, enc)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		out := map[string]any{}
		if len(plain) >= 32 {
			out["output1"] = plain[:32]
		}
		if len(plain) >= 64 {
			out["output2"] = plain[32:64]
		}
		clientExt = map[string]any{"hmacGetSecret": out}
	}

	return &GetAssertionResult{
		CredentialID:           resp.Credential.ID,
		AuthData:               resp.AuthData,
		Signature:              resp.Signature,
		UserHandle:             resp.User.ID,
		ClientExtensionResults: clientExt,
	}, nil
}

func (c *Client) zeroHMACState() {
	if c.pendingHMACShared != nil {
		c.pendingHMACShared.Zero()
	}
	c.pendingHMACShared = nil
	c.pendingHMACProto = nil
}

// authenticateWithPIN negotiates a PIN/UV auth protocol version, prompts
// for the PIN, and returns a pinUvAuthParam bound to clientDataHash.
func (c *Client) authenticateWithPIN(ctx context.Context, info *ctap2.InfoData, clientDataHash []byte, permission uint32, rpID string) ([]byte, uint32, error) {
	proto, err := negotiatedProtocol(info)
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}
	caller := pinuv.NewCaller(c.sess, proto)

	pinStr, err := c.prompt.PromptPIN()
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}
	if pinStr == "" {
		return nil, 0, clienterr.NewPinRequired()
	}

	token, err := caller.GetPinUvAuthTokenUsingPinWithPermissions(ctx, secret.New([]byte(pinStr)), permission, rpID)
	if err != nil {
		return nil, 0, classifyPINError(ctx, caller, "PIN", err)
	}
	defer token.Zero()

	return proto.Authenticate(token, clientDataHash), uint32(proto.Version()), nil
}

func toDescriptors(in []webauthntypes.CredentialDescriptor) []credDescriptor {
	out := make([]credDescriptor, 0, len(in))
	for _, d := range in {
		out = append(out, credDescriptor{Type: string(d.Type), ID: d.CredentialID})
	}
	return out
}
